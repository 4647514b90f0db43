package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core/roster"
)

type rosterRepository struct {
	db *rosterTable
}

var _ roster.Repository = (*rosterRepository)(nil)

func NewRosterRepository(db *DB) *rosterRepository {
	return &rosterRepository{db: db.roster}
}

func (repo *rosterRepository) GetClassByID(ctx context.Context, id string) (roster.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return roster.Class{}, roster.ErrClassNotFound
}

func (repo *rosterRepository) GetClassesByID(ctx context.Context, ids ...string) ([]roster.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]roster.Class, 0, len(ids))
	for _, id := range ids {
		if cls, ok := repo.db.classes[id]; ok {
			classes = append(classes, *cls)
		}
	}
	return classes, nil
}

func (repo *rosterRepository) ListClassStudentIDs(ctx context.Context, classID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := append([]string(nil), repo.db.enrollment[classID]...)
	sort.Strings(ids)
	return ids, nil
}

// CreateClass and EnrollStudents are test/seed helpers; enrollment management
// proper lives with the external registrar.

func (repo *rosterRepository) CreateClass(cls roster.Class) roster.Class {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.classes[cls.ID] = &cls
	return cls
}

func (repo *rosterRepository) EnrollStudents(classID string, studentIDs ...string) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.enrollment[classID] = append(repo.db.enrollment[classID], studentIDs...)
}
