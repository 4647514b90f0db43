package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core/grade"
)

type gradeRepository struct {
	db *gradeTable
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db.grade}
}

func assessmentKey(rec grade.Record) string {
	return rec.StudentID + "|" + rec.ClassID + "|" + rec.AssessmentType + "|" + rec.AssessmentID
}

func (repo *gradeRepository) CreateRecord(ctx context.Context, rec grade.Record) (grade.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := assessmentKey(rec)
	if _, ok := repo.db.keys[key]; ok {
		return grade.Record{}, grade.ErrRecordExists
	}
	repo.db.table[rec.ID] = &rec
	repo.db.keys[key] = rec.ID
	return rec, nil
}

func (repo *gradeRepository) GetRecordByID(ctx context.Context, id string) (grade.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return grade.Record{}, grade.ErrNotFound
}

func (repo *gradeRepository) FilterRecords(ctx context.Context, filter grade.QueryFilter) ([]grade.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]grade.Record, 0)
	for _, rec := range repo.db.table {
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.ClassID != "" && rec.ClassID != filter.ClassID {
			continue
		}
		if filter.AssessmentType != "" && rec.AssessmentType != filter.AssessmentType {
			continue
		}
		if filter.AssessmentID != "" && rec.AssessmentID != filter.AssessmentID {
			continue
		}
		if filter.PublishedOnly && !rec.IsPublished {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].GradedAt.Equal(recs[j].GradedAt) {
			return recs[i].GradedAt.After(recs[j].GradedAt)
		}
		return recs[i].StudentID < recs[j].StudentID
	})
	return recs, nil
}

func (repo *gradeRepository) UpdateRecord(ctx context.Context, rec grade.Record) (grade.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[rec.ID]
	if !ok {
		return grade.Record{}, grade.ErrNotFound
	}
	orig.ObtainedMarks = rec.ObtainedMarks
	orig.Percentage = rec.Percentage
	orig.LetterGrade = rec.LetterGrade
	orig.Remarks = rec.Remarks
	orig.GradedBy = rec.GradedBy
	orig.GradedAt = rec.GradedAt
	return *orig, nil
}

func (repo *gradeRepository) UpdatePublished(ctx context.Context, ids []string, published bool) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var updated int
	for _, id := range ids {
		if rec, ok := repo.db.table[id]; ok {
			rec.IsPublished = published
			updated++
		}
	}
	if updated == 0 {
		return 0, grade.ErrNotFound
	}
	return updated, nil
}

func (repo *gradeRepository) DeleteRecord(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[id]
	if !ok {
		return grade.ErrNotFound
	}
	delete(repo.db.keys, assessmentKey(*rec))
	delete(repo.db.table, id)
	return nil
}
