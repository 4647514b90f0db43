package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/grade"
)

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *sqlx.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

type gradeRow struct {
	ID              string    `db:"id"`
	StudentID       string    `db:"student_id"`
	ClassID         string    `db:"class_id"`
	AssessmentType  string    `db:"assessment_type"`
	AssessmentID    string    `db:"assessment_id"`
	AssessmentTitle string    `db:"assessment_title"`
	MaxMarks        float64   `db:"max_marks"`
	ObtainedMarks   float64   `db:"obtained_marks"`
	Percentage      float64   `db:"percentage"`
	LetterGrade     string    `db:"letter_grade"`
	Remarks         string    `db:"remarks"`
	GradedBy        string    `db:"graded_by"`
	GradedAt        time.Time `db:"graded_at"`
	IsPublished     bool      `db:"is_published"`
}

func (r gradeRow) record() grade.Record {
	return grade.Record{
		ID:              r.ID,
		StudentID:       r.StudentID,
		ClassID:         r.ClassID,
		AssessmentType:  r.AssessmentType,
		AssessmentID:    r.AssessmentID,
		AssessmentTitle: r.AssessmentTitle,
		MaxMarks:        r.MaxMarks,
		ObtainedMarks:   r.ObtainedMarks,
		Percentage:      r.Percentage,
		LetterGrade:     r.LetterGrade,
		Remarks:         r.Remarks,
		GradedBy:        r.GradedBy,
		GradedAt:        r.GradedAt.UTC(),
		IsPublished:     r.IsPublished,
	}
}

func newGradeRow(rec grade.Record) gradeRow {
	return gradeRow{
		ID:              rec.ID,
		StudentID:       rec.StudentID,
		ClassID:         rec.ClassID,
		AssessmentType:  rec.AssessmentType,
		AssessmentID:    rec.AssessmentID,
		AssessmentTitle: rec.AssessmentTitle,
		MaxMarks:        rec.MaxMarks,
		ObtainedMarks:   rec.ObtainedMarks,
		Percentage:      rec.Percentage,
		LetterGrade:     rec.LetterGrade,
		Remarks:         rec.Remarks,
		GradedBy:        rec.GradedBy,
		GradedAt:        rec.GradedAt,
		IsPublished:     rec.IsPublished,
	}
}

func (repo *gradeRepository) CreateRecord(ctx context.Context, rec grade.Record) (grade.Record, error) {
	const query = `
		INSERT INTO grade_record (id, student_id, class_id, assessment_type, assessment_id, assessment_title,
		                          max_marks, obtained_marks, percentage, letter_grade, remarks, graded_by, graded_at, is_published)
		VALUES (:id, :student_id, :class_id, :assessment_type, :assessment_id, :assessment_title,
		        :max_marks, :obtained_marks, :percentage, :letter_grade, :remarks, :graded_by, :graded_at, :is_published)`

	if _, err := repo.db.NamedExecContext(ctx, query, newGradeRow(rec)); err != nil {
		if isUniqueViolation(err) {
			return grade.Record{}, grade.ErrRecordExists
		}
		return grade.Record{}, errors.Wrap(err, "inserting grade record")
	}
	return rec, nil
}

func (repo *gradeRepository) GetRecordByID(ctx context.Context, id string) (grade.Record, error) {
	var row gradeRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM grade_record WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return grade.Record{}, grade.ErrNotFound
		}
		return grade.Record{}, errors.Wrap(err, "getting grade record")
	}
	return row.record(), nil
}

func (repo *gradeRepository) FilterRecords(ctx context.Context, filter grade.QueryFilter) ([]grade.Record, error) {
	query := `SELECT * FROM grade_record WHERE 1=1`
	args := make([]interface{}, 0, 5)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += ` AND student_id = $` + itoa(len(args))
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		query += ` AND class_id = $` + itoa(len(args))
	}
	if filter.AssessmentType != "" {
		args = append(args, filter.AssessmentType)
		query += ` AND assessment_type = $` + itoa(len(args))
	}
	if filter.AssessmentID != "" {
		args = append(args, filter.AssessmentID)
		query += ` AND assessment_id = $` + itoa(len(args))
	}
	if filter.PublishedOnly {
		query += ` AND is_published`
	}
	query += ` ORDER BY graded_at DESC, student_id`

	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering grade records")
	}
	recs := make([]grade.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}

func (repo *gradeRepository) UpdateRecord(ctx context.Context, rec grade.Record) (grade.Record, error) {
	// percentage/letter_grade travel with obtained_marks, never alone
	const query = `
		UPDATE grade_record
		SET obtained_marks = :obtained_marks, percentage = :percentage, letter_grade = :letter_grade,
		    remarks = :remarks, graded_by = :graded_by, graded_at = :graded_at
		WHERE id = :id`

	res, err := repo.db.NamedExecContext(ctx, query, newGradeRow(rec))
	if err != nil {
		return grade.Record{}, errors.Wrap(err, "updating grade record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return grade.Record{}, grade.ErrNotFound
	}
	return repo.GetRecordByID(ctx, rec.ID)
}

func (repo *gradeRepository) UpdatePublished(ctx context.Context, ids []string, published bool) (int, error) {
	query, args, err := sqlx.In(`UPDATE grade_record SET is_published = ? WHERE id IN (?)`, published, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building publish query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "publishing grade records")
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return 0, grade.ErrNotFound
	}
	return int(n), nil
}

func (repo *gradeRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM grade_record WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting grade record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return grade.ErrNotFound
	}
	return nil
}
