package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/roster"
)

type (
	DB struct {
		roster       *rosterTable
		attendance   *attendanceTable
		grade        *gradeTable
		notification *notificationTable
	}

	rosterTable struct {
		sync.RWMutex
		classes    map[string]*roster.Class
		enrollment map[string][]string // classID -> ordered studentIDs
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
		keys  map[string]string // (student,class,date) -> record id
	}

	gradeTable struct {
		sync.RWMutex
		table map[string]*grade.Record
		keys  map[string]string // (student,class,type,assessment) -> record id
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*notification.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		roster: &rosterTable{
			classes:    make(map[string]*roster.Class),
			enrollment: make(map[string][]string),
		},
		attendance: &attendanceTable{
			table: make(map[string]*attendance.Record),
			keys:  make(map[string]string),
		},
		grade: &gradeTable{
			table: make(map[string]*grade.Record),
			keys:  make(map[string]string),
		},
		notification: &notificationTable{
			table: make(map[string]*notification.Notification),
		},
	}
	return db, nil
}
