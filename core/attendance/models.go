package attendance

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

var statuses = []string{StatusPresent, StatusAbsent, StatusLate}

func ValidStatus(status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Record is a per-(student, class, day) attendance fact.
// The triple is unique; "reject duplicate on single / replace on bulk" is the
// entire lifecycle policy.
type Record struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	ClassID      string    `json:"class_id"`
	ClassName    string    `json:"class_name,omitempty"`    // enrichment, not stored
	ClassSubject string    `json:"class_subject,omitempty"` // enrichment, not stored
	SessionDate  time.Time `json:"session_date"`            // date-only, UTC midnight
	Status       string    `json:"status"`
	MarkedBy     string    `json:"marked_by"`
	Remarks      string    `json:"remarks,omitempty"`
	MarkedAt     time.Time `json:"marked_at"`  // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewRecord contains information needed to mark a single student.
type NewRecord struct {
	StudentID   string `json:"student_id" validate:"required"`
	ClassID     string `json:"class_id" validate:"required"`
	SessionDate string `json:"date" validate:"required,datetime=2006-01-02"`
	Status      string `json:"status" validate:"required,attendancestatus"`
	Remarks     string `json:"remarks"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.ClassID = core.CleanString(nr.ClassID)
	nr.Status = core.CleanString(nr.Status, true /* lower */)
	return validate.Struct(nr)
}

// BulkRow is one student's entry within a bulk marking.
type BulkRow struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
	Remarks   string `json:"remarks"`
}

// BulkRecords marks a whole class for one day. Rows sharing a student id are
// de-duplicated keeping the last occurrence: later input wins.
type BulkRecords struct {
	ClassID     string    `json:"class_id" validate:"required"`
	SessionDate string    `json:"date" validate:"required,datetime=2006-01-02"`
	Rows        []BulkRow `json:"records" validate:"required,min=1"`
}

func (br *BulkRecords) Validate(validate *validator.Validate) error {
	br.ClassID = core.CleanString(br.ClassID)
	for i := range br.Rows {
		br.Rows[i].StudentID = core.CleanString(br.Rows[i].StudentID)
		br.Rows[i].Status = core.CleanString(br.Rows[i].Status, true /* lower */)
	}
	return validate.Struct(br)
}

// UpdateRecord defines what may be modified on an existing Record.
type UpdateRecord struct {
	Status  string `json:"status" validate:"required,attendancestatus"`
	Remarks string `json:"remarks"`
}

func (ur *UpdateRecord) Validate(validate *validator.Validate) error {
	ur.Status = core.CleanString(ur.Status, true /* lower */)
	return validate.Struct(ur)
}

// BulkResult reports per-row outcomes of a bulk marking; malformed rows are
// skipped, never aborting the batch.
type BulkResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type QueryFilter struct {
	StudentID   string    `query:"student_id"`
	ClassID     string    `query:"class_id"`
	SessionDate time.Time `query:"-"`
	DateFrom    time.Time `query:"-"`
	DateTo      time.Time `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.ClassID == "" &&
		qf.SessionDate.IsZero() && qf.DateFrom.IsZero() && qf.DateTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.ClassID = core.CleanString(qf.ClassID)
}

// Statistics summarizes one student's attendance over a period.
type Statistics struct {
	TotalDays            int     `json:"total_days"`
	PresentDays          int     `json:"present_days"`
	AbsentDays           int     `json:"absent_days"`
	LateDays             int     `json:"late_days"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// validators

var (
	statusTag  = "attendancestatus"
	statusText = "status must be one of: present, absent, late"
)

// InitValidators registers this package's custom validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return ValidStatus(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

// ParseDate parses a date-only value to midnight UTC.
func ParseDate(val string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", val, time.UTC)
}
