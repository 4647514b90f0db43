package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/roster"
)

type rosterRepository struct {
	db *sqlx.DB
}

var _ roster.Repository = (*rosterRepository)(nil)

func NewRosterRepository(db *sqlx.DB) *rosterRepository {
	return &rosterRepository{db: db}
}

type classRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Subject   string    `db:"subject"`
	TeacherID string    `db:"teacher_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r classRow) class() roster.Class {
	return roster.Class{
		ID:        r.ID,
		Name:      r.Name,
		Subject:   r.Subject,
		TeacherID: r.TeacherID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (repo *rosterRepository) GetClassByID(ctx context.Context, id string) (roster.Class, error) {
	var row classRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM class WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return roster.Class{}, roster.ErrClassNotFound
		}
		return roster.Class{}, errors.Wrap(err, "getting class")
	}
	return row.class(), nil
}

func (repo *rosterRepository) GetClassesByID(ctx context.Context, ids ...string) ([]roster.Class, error) {
	query, args, err := sqlx.In(`SELECT * FROM class WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building class query")
	}

	var rows []classRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "getting classes")
	}
	classes := make([]roster.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.class())
	}
	return classes, nil
}

func (repo *rosterRepository) ListClassStudentIDs(ctx context.Context, classID string) ([]string, error) {
	const query = `SELECT student_id FROM class_enrollment WHERE class_id = $1 ORDER BY student_id`

	ids := make([]string, 0)
	if err := repo.db.SelectContext(ctx, &ids, query, classID); err != nil {
		return nil, errors.Wrap(err, "listing class students")
	}
	return ids, nil
}
