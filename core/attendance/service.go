package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/roster"
)

var (
	// errors
	ErrNotFound     = errors.New("attendance record not found")
	ErrRecordExists = errors.New("attendance already marked for this student on this date, use update")
)

type (
	Repository interface {
		// CreateRecord inserts a new record; it fails with ErrRecordExists when the
		// (student, class, date) triple is already present.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		// UpsertRecord replaces the record stored under the record's triple or
		// creates it. Each triple is its own consistency boundary; concurrent
		// upserts on the same triple converge to last-write-wins.
		UpsertRecord(ctx context.Context, rec Record) (Record, bool, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		// FilterRecords applies AND operation on available QueryFilter fields.
		FilterRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		DeleteRecord(ctx context.Context, id string) error
	}

	Service struct {
		repo      Repository
		rosterSvc *roster.Service
		logger    core.Logger
	}
)

func NewService(repo Repository, rosterSvc *roster.Service, logger core.Logger) *Service {
	return &Service{repo: repo, rosterSvc: rosterSvc, logger: logger}
}

// MarkOne records a single student's attendance. Duplicates are rejected, not
// merged: single marking defends against accidental double entry.
func (svc *Service) MarkOne(ctx context.Context, actor core.Actor, nr NewRecord) (Record, error) {
	date, err := ParseDate(nr.SessionDate)
	if err != nil {
		return Record{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}

	now := time.Now().UTC()
	rec := Record{
		ID:          uuid.New().String(),
		StudentID:   nr.StudentID,
		ClassID:     nr.ClassID,
		SessionDate: date,
		Status:      nr.Status,
		MarkedBy:    actor.ID,
		Remarks:     nr.Remarks,
		MarkedAt:    now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateRecord(ctx, rec)
}

// MarkBulk upserts one record per student for a class day. It is idempotent:
// retrying the same input replaces records in place. Rows sharing a student id
// are collapsed to the last occurrence before writing so a batch never
// conflicts with itself; malformed rows are skipped and logged.
func (svc *Service) MarkBulk(ctx context.Context, actor core.Actor, br BulkRecords) (BulkResult, error) {
	date, err := ParseDate(br.SessionDate)
	if err != nil {
		return BulkResult{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}

	// class must exist; enrollment itself is not enforced per row
	if _, err = svc.rosterSvc.GetClass(ctx, br.ClassID); err != nil {
		return BulkResult{}, err
	}

	var res BulkResult
	rows := make([]BulkRow, 0, len(br.Rows))
	seen := make(map[string]int, len(br.Rows))
	for _, row := range br.Rows {
		if row.StudentID == "" || !ValidStatus(row.Status) {
			res.Skipped++
			svc.logger.Warn(fmt.Sprintf("attendance.MarkBulk: skipping malformed row (student=%q status=%q)", row.StudentID, row.Status), actor)
			continue
		}
		if i, ok := seen[row.StudentID]; ok {
			rows[i] = row // later input wins
			continue
		}
		seen[row.StudentID] = len(rows)
		rows = append(rows, row)
	}

	now := time.Now().UTC()
	for _, row := range rows {
		rec := Record{
			ID:          uuid.New().String(),
			StudentID:   row.StudentID,
			ClassID:     br.ClassID,
			SessionDate: date,
			Status:      row.Status,
			MarkedBy:    actor.ID,
			Remarks:     row.Remarks,
			MarkedAt:    now,
			UpdatedAt:   now,
		}
		if _, created, err := svc.repo.UpsertRecord(ctx, rec); err != nil {
			res.Skipped++
			svc.logger.Error(fmt.Sprintf("attendance.MarkBulk: upsert failed for student %s: %v", row.StudentID, err), err, actor)
		} else if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

// Query returns matching records enriched with class name/subject. A record
// whose class no longer resolves gets a placeholder label, never an error.
func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	recs, err := svc.repo.FilterRecords(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return recs, nil
	}

	seen := make(map[string]bool, len(recs))
	classIDs := make([]string, 0, len(recs))
	for _, rec := range recs {
		if !seen[rec.ClassID] {
			seen[rec.ClassID] = true
			classIDs = append(classIDs, rec.ClassID)
		}
	}
	labels, err := svc.rosterSvc.ClassLabels(ctx, classIDs...)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		cls := labels[recs[i].ClassID]
		recs[i].ClassName = cls.Name
		recs[i].ClassSubject = cls.Subject
	}
	return recs, nil
}

// Statistics is a point-in-time snapshot; no isolation is guaranteed against
// concurrent writes.
func (svc *Service) Statistics(ctx context.Context, studentID string, filter QueryFilter) (Statistics, error) {
	filter.StudentID = studentID
	recs, err := svc.repo.FilterRecords(ctx, filter)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{TotalDays: len(recs)}
	for _, rec := range recs {
		switch rec.Status {
		case StatusPresent:
			stats.PresentDays++
		case StatusAbsent:
			stats.AbsentDays++
		case StatusLate:
			stats.LateDays++
		}
	}
	if stats.TotalDays > 0 {
		stats.AttendancePercentage = core.Round2(float64(stats.PresentDays) / float64(stats.TotalDays) * 100)
	}
	return stats, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, actor core.Actor, id string, ur UpdateRecord) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	rec.Status = ur.Status
	rec.Remarks = ur.Remarks
	rec.MarkedBy = actor.ID
	rec.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRecord(ctx, rec)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteRecord(ctx, id)
}
