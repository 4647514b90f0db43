package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance}
}

func tripleKey(rec attendance.Record) string {
	return rec.StudentID + "|" + rec.ClassID + "|" + rec.SessionDate.Format("2006-01-02")
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := tripleKey(rec)
	if _, ok := repo.db.keys[key]; ok {
		return attendance.Record{}, attendance.ErrRecordExists
	}
	repo.db.table[rec.ID] = &rec
	repo.db.keys[key] = rec.ID
	return rec, nil
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := tripleKey(rec)
	if id, ok := repo.db.keys[key]; ok {
		orig := repo.db.table[id]
		orig.Status = rec.Status
		orig.Remarks = rec.Remarks
		orig.MarkedBy = rec.MarkedBy
		orig.UpdatedAt = rec.UpdatedAt
		return *orig, false, nil
	}
	repo.db.table[rec.ID] = &rec
	repo.db.keys[key] = rec.ID
	return rec, true, nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.table {
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.ClassID != "" && rec.ClassID != filter.ClassID {
			continue
		}
		if !filter.SessionDate.IsZero() && !rec.SessionDate.Equal(filter.SessionDate) {
			continue
		}
		if !filter.DateFrom.IsZero() && rec.SessionDate.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && rec.SessionDate.After(filter.DateTo) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].SessionDate.Equal(recs[j].SessionDate) {
			return recs[i].SessionDate.After(recs[j].SessionDate)
		}
		return recs[i].StudentID < recs[j].StudentID
	})
	return recs, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[rec.ID]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	orig.Status = rec.Status
	orig.Remarks = rec.Remarks
	orig.MarkedBy = rec.MarkedBy
	orig.UpdatedAt = rec.UpdatedAt
	return *orig, nil
}

func (repo *attendanceRepository) DeleteRecord(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[id]
	if !ok {
		return attendance.ErrNotFound
	}
	delete(repo.db.keys, tripleKey(*rec))
	delete(repo.db.table, id)
	return nil
}
