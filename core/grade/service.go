package grade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/roster"
)

var (
	// errors
	ErrNotFound     = errors.New("grade record not found")
	ErrRecordExists = errors.New("grade already recorded for this student and assessment, use update")
)

type (
	Repository interface {
		// CreateRecord inserts a new record; it fails with ErrRecordExists when the
		// (student, class, assessment type, assessment id) key is already present.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		// FilterRecords applies AND operation on available QueryFilter fields.
		FilterRecords(ctx context.Context, filter QueryFilter) ([]Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		// UpdatePublished flips visibility only; marks and bands are untouched.
		UpdatePublished(ctx context.Context, ids []string, published bool) (int, error)
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

// RecordOne grades a single student. Duplicate (student, class, assessment)
// keys are rejected; callers must switch to update.
func (svc *Service) RecordOne(ctx context.Context, actor core.Actor, nr NewRecord) (Record, error) {
	rec := Record{
		ID:              uuid.New().String(),
		StudentID:       nr.StudentID,
		ClassID:         nr.ClassID,
		AssessmentType:  nr.AssessmentType,
		AssessmentID:    nr.AssessmentID,
		AssessmentTitle: nr.AssessmentTitle,
		MaxMarks:        nr.MaxMarks,
		ObtainedMarks:   nr.ObtainedMarks,
		Remarks:         nr.Remarks,
		GradedBy:        actor.ID,
		GradedAt:        time.Now().UTC(),
	}
	rec.ComputeBand()
	return svc.repo.CreateRecord(ctx, rec)
}

// RecordBulk grades a whole class for one assessment, sharing the assessment
// metadata across the batch. Rows are de-duplicated by student id keeping the
// first occurrence; malformed or already-graded rows are skipped and logged,
// never aborting the rest.
func (svc *Service) RecordBulk(ctx context.Context, actor core.Actor, br BulkRecords) (BulkResult, error) {
	if _, err := svc.rosterSvc.GetClass(ctx, br.ClassID); err != nil {
		return BulkResult{}, err
	}

	assessmentID := br.AssessmentID
	if assessmentID == "" {
		assessmentID = uuid.New().String()
	}

	res := BulkResult{Created: make([]Record, 0, len(br.Rows))}
	seen := make(map[string]bool, len(br.Rows))
	now := time.Now().UTC()
	for _, row := range br.Rows {
		if row.StudentID == "" || row.ObtainedMarks < 0 || row.ObtainedMarks > br.MaxMarks {
			res.Skipped++
			svc.logger.Warn(fmt.Sprintf("grade.RecordBulk: skipping malformed row (student=%q marks=%v)", row.StudentID, row.ObtainedMarks), actor)
			continue
		}
		if seen[row.StudentID] {
			// first occurrence wins; a later duplicate is a client error
			res.Skipped++
			svc.logger.Warn(fmt.Sprintf("grade.RecordBulk: skipping duplicate row for student %s", row.StudentID), actor)
			continue
		}
		seen[row.StudentID] = true

		rec := Record{
			ID:              uuid.New().String(),
			StudentID:       row.StudentID,
			ClassID:         br.ClassID,
			AssessmentType:  br.AssessmentType,
			AssessmentID:    assessmentID,
			AssessmentTitle: br.AssessmentTitle,
			MaxMarks:        br.MaxMarks,
			ObtainedMarks:   row.ObtainedMarks,
			Remarks:         row.Remarks,
			GradedBy:        actor.ID,
			GradedAt:        now,
		}
		rec.ComputeBand()

		rec, err := svc.repo.CreateRecord(ctx, rec)
		if err != nil {
			res.Skipped++
			svc.logger.Warn(fmt.Sprintf("grade.RecordBulk: skipping student %s: %v", row.StudentID, err), actor)
			continue
		}
		res.Created = append(res.Created, rec)
	}
	return res, nil
}

// Query returns matching records. Student-facing actors only ever see
// published records; staff see all regardless of publish state.
func (svc *Service) Query(ctx context.Context, actor core.Actor, filter QueryFilter) ([]Record, error) {
	if !actor.IsStaff() {
		filter.StudentID = actor.ID
		filter.PublishedOnly = true
	}
	return svc.repo.FilterRecords(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetRecordByID(ctx, id)
}

// Update recomputes percentage and letter grade against the stored max marks
// and refreshes GradedAt. Assessment identity is immutable.
func (svc *Service) Update(ctx context.Context, actor core.Actor, id string, ur UpdateRecord) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if ur.ObtainedMarks != nil {
		if *ur.ObtainedMarks < 0 || *ur.ObtainedMarks > rec.MaxMarks {
			return Record{}, core.NewValidationError(nil,
				core.FieldError{Field: "obtained_marks", Error: fmt.Sprintf("must be between 0 and %v", rec.MaxMarks)})
		}
		rec.ObtainedMarks = *ur.ObtainedMarks
		rec.ComputeBand()
	}
	if ur.Remarks != nil {
		rec.Remarks = *ur.Remarks
	}
	rec.GradedBy = actor.ID
	rec.GradedAt = time.Now().UTC()
	return svc.repo.UpdateRecord(ctx, rec)
}

// Publish toggles visibility only; no recomputation happens.
func (svc *Service) Publish(ctx context.Context, id string, published bool) (Record, error) {
	if _, err := svc.repo.UpdatePublished(ctx, []string{id}, published); err != nil {
		return Record{}, err
	}
	return svc.repo.GetRecordByID(ctx, id)
}

func (svc *Service) PublishBulk(ctx context.Context, ids []string, published bool) (int, error) {
	return svc.repo.UpdatePublished(ctx, ids, published)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteRecord(ctx, id)
}

// Statistics aggregates a class's grade book as a point-in-time snapshot.
func (svc *Service) Statistics(ctx context.Context, classID, assessmentType string) (Statistics, error) {
	recs, err := svc.repo.FilterRecords(ctx, QueryFilter{ClassID: classID, AssessmentType: assessmentType})
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{
		GradeDistribution: make(map[string]int, len(bands)+1),
		AssessmentTypes:   []string{},
	}
	for _, band := range Bands() {
		stats.GradeDistribution[band] = 0
	}
	if len(recs) == 0 {
		stats.AverageGrade = LetterGrade(0)
		return stats, nil
	}

	students := make(map[string]bool)
	types := make(map[string]bool)
	var pctSum float64
	for _, rec := range recs {
		students[rec.StudentID] = true
		types[rec.AssessmentType] = true
		stats.GradeDistribution[rec.LetterGrade]++
		pctSum += rec.Percentage
	}
	stats.TotalStudents = len(students)
	stats.AveragePercentage = core.Round2(pctSum / float64(len(recs)))
	stats.AverageGrade = LetterGrade(stats.AveragePercentage)
	for typ := range types {
		stats.AssessmentTypes = append(stats.AssessmentTypes, typ)
	}
	sort.Strings(stats.AssessmentTypes)
	return stats, nil
}
