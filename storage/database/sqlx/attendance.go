package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

type attendanceRow struct {
	ID          string    `db:"id"`
	StudentID   string    `db:"student_id"`
	ClassID     string    `db:"class_id"`
	SessionDate time.Time `db:"session_date"`
	Status      string    `db:"status"`
	MarkedBy    string    `db:"marked_by"`
	Remarks     string    `db:"remarks"`
	MarkedAt    time.Time `db:"marked_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r attendanceRow) record() attendance.Record {
	return attendance.Record{
		ID:          r.ID,
		StudentID:   r.StudentID,
		ClassID:     r.ClassID,
		SessionDate: r.SessionDate.UTC(),
		Status:      r.Status,
		MarkedBy:    r.MarkedBy,
		Remarks:     r.Remarks,
		MarkedAt:    r.MarkedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func newAttendanceRow(rec attendance.Record) attendanceRow {
	return attendanceRow{
		ID:          rec.ID,
		StudentID:   rec.StudentID,
		ClassID:     rec.ClassID,
		SessionDate: rec.SessionDate,
		Status:      rec.Status,
		MarkedBy:    rec.MarkedBy,
		Remarks:     rec.Remarks,
		MarkedAt:    rec.MarkedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	const query = `
		INSERT INTO attendance_record (id, student_id, class_id, session_date, status, marked_by, remarks, marked_at, updated_at)
		VALUES (:id, :student_id, :class_id, :session_date, :status, :marked_by, :remarks, :marked_at, :updated_at)`

	if _, err := repo.db.NamedExecContext(ctx, query, newAttendanceRow(rec)); err != nil {
		if isUniqueViolation(err) {
			return attendance.Record{}, attendance.ErrRecordExists
		}
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	// one keyed statement per student; concurrent calls on the same triple
	// converge to last-write-wins without touching sibling rows
	const query = `
		INSERT INTO attendance_record (id, student_id, class_id, session_date, status, marked_by, remarks, marked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, class_id, session_date) DO UPDATE
			SET status = EXCLUDED.status,
			    remarks = EXCLUDED.remarks,
			    marked_by = EXCLUDED.marked_by,
			    updated_at = EXCLUDED.updated_at
		RETURNING id, marked_at, (xmax = 0) AS inserted`

	var (
		id       string
		markedAt time.Time
		inserted bool
	)
	err := repo.db.QueryRowxContext(ctx, query,
		rec.ID, rec.StudentID, rec.ClassID, rec.SessionDate, rec.Status, rec.MarkedBy, rec.Remarks, rec.MarkedAt, rec.UpdatedAt,
	).Scan(&id, &markedAt, &inserted)
	if err != nil {
		return attendance.Record{}, false, errors.Wrap(err, "upserting attendance record")
	}
	rec.ID = id
	rec.MarkedAt = markedAt.UTC()
	return rec, inserted, nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	var row attendanceRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM attendance_record WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "getting attendance record")
	}
	return row.record(), nil
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	query := `SELECT * FROM attendance_record WHERE 1=1`
	args := make([]interface{}, 0, 5)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += ` AND student_id = $` + itoa(len(args))
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		query += ` AND class_id = $` + itoa(len(args))
	}
	if !filter.SessionDate.IsZero() {
		args = append(args, filter.SessionDate)
		query += ` AND session_date = $` + itoa(len(args))
	}
	if !filter.DateFrom.IsZero() {
		args = append(args, filter.DateFrom)
		query += ` AND session_date >= $` + itoa(len(args))
	}
	if !filter.DateTo.IsZero() {
		args = append(args, filter.DateTo)
		query += ` AND session_date <= $` + itoa(len(args))
	}
	query += ` ORDER BY session_date DESC, student_id`

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering attendance records")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	const query = `
		UPDATE attendance_record
		SET status = :status, remarks = :remarks, marked_by = :marked_by, updated_at = :updated_at
		WHERE id = :id`

	res, err := repo.db.NamedExecContext(ctx, query, newAttendanceRow(rec))
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return repo.GetRecordByID(ctx, rec.ID)
}

func (repo *attendanceRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM attendance_record WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}
