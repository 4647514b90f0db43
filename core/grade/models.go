package grade

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Assessment types
const (
	TypeAssignment = "assignment"
	TypeQuiz       = "quiz"
	TypeMidterm    = "midterm"
	TypeFinal      = "final"
	TypeTotal      = "total"
)

var assessmentTypes = []string{TypeAssignment, TypeQuiz, TypeMidterm, TypeFinal, TypeTotal}

func ValidAssessmentType(typ string) bool {
	for _, t := range assessmentTypes {
		if t == typ {
			return true
		}
	}
	return false
}

// Letter grade bands, evaluated high to low with inclusive lower bounds.
// Downstream statistics depend on this exact ladder.
var bands = []struct {
	floor  float64
	letter string
}{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C+"},
	{40, "C"},
	{30, "D"},
}

// LetterGrade maps a percentage to its band.
func LetterGrade(percentage float64) string {
	for _, b := range bands {
		if percentage >= b.floor {
			return b.letter
		}
	}
	return "F"
}

// Bands returns all letter grades, best first.
func Bands() []string {
	all := make([]string, 0, len(bands)+1)
	for _, b := range bands {
		all = append(all, b.letter)
	}
	return append(all, "F")
}

// Record is a per-(student, class, assessment) grade fact. Percentage and
// LetterGrade are derived from ObtainedMarks/MaxMarks and recomputed together
// on every write path, never patched independently.
type Record struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"student_id"`
	ClassID         string    `json:"class_id"`
	AssessmentType  string    `json:"assessment_type"`
	AssessmentID    string    `json:"assessment_id"`
	AssessmentTitle string    `json:"assessment_title"`
	MaxMarks        float64   `json:"max_marks"`
	ObtainedMarks   float64   `json:"obtained_marks"`
	Percentage      float64   `json:"percentage"`
	LetterGrade     string    `json:"letter_grade"`
	Remarks         string    `json:"remarks,omitempty"`
	GradedBy        string    `json:"graded_by"`
	GradedAt        time.Time `json:"graded_at"` // UTC
	IsPublished     bool      `json:"is_published"`
}

// ComputeBand recomputes the derived pair in lockstep with the marks.
func (r *Record) ComputeBand() {
	r.Percentage = core.Round2(r.ObtainedMarks / r.MaxMarks * 100)
	r.LetterGrade = LetterGrade(r.Percentage)
}

// NewRecord contains information needed to grade a single student.
type NewRecord struct {
	StudentID       string  `json:"student_id" validate:"required"`
	ClassID         string  `json:"class_id" validate:"required"`
	AssessmentType  string  `json:"assessment_type" validate:"required,assessmenttype"`
	AssessmentID    string  `json:"assessment_id" validate:"required"`
	AssessmentTitle string  `json:"title" validate:"required"`
	MaxMarks        float64 `json:"max_marks" validate:"required,gt=0"`
	ObtainedMarks   float64 `json:"obtained_marks" validate:"gte=0,ltefield=MaxMarks"`
	Remarks         string  `json:"remarks"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.ClassID = core.CleanString(nr.ClassID)
	nr.AssessmentType = core.CleanString(nr.AssessmentType, true /* lower */)
	nr.AssessmentID = core.CleanString(nr.AssessmentID)
	nr.AssessmentTitle = core.CleanString(nr.AssessmentTitle)
	return validate.Struct(nr)
}

// BulkRow is one student's marks within a bulk grading.
type BulkRow struct {
	StudentID     string  `json:"student_id"`
	ObtainedMarks float64 `json:"obtained_marks"`
	Remarks       string  `json:"remarks"`
}

// BulkRecords grades a whole class for one assessment; type, title and max
// marks are shared across the batch. Rows sharing a student id keep the FIRST
// occurrence — a later duplicate is a client error, not a correction. This is
// the opposite of attendance bulk marking, deliberately so.
type BulkRecords struct {
	ClassID         string    `json:"class_id" validate:"required"`
	AssessmentType  string    `json:"assessment_type" validate:"required,assessmenttype"`
	AssessmentID    string    `json:"assessment_id"`
	AssessmentTitle string    `json:"title" validate:"required"`
	MaxMarks        float64   `json:"max_marks" validate:"required,gt=0"`
	Rows            []BulkRow `json:"grades" validate:"required,min=1"`
}

func (br *BulkRecords) Validate(validate *validator.Validate) error {
	br.ClassID = core.CleanString(br.ClassID)
	br.AssessmentType = core.CleanString(br.AssessmentType, true /* lower */)
	br.AssessmentID = core.CleanString(br.AssessmentID)
	br.AssessmentTitle = core.CleanString(br.AssessmentTitle)
	for i := range br.Rows {
		br.Rows[i].StudentID = core.CleanString(br.Rows[i].StudentID)
	}
	return validate.Struct(br)
}

// BulkResult reports a bulk grading outcome; malformed or already-graded rows
// are skipped, never aborting the batch.
type BulkResult struct {
	Created []Record `json:"created"`
	Skipped int      `json:"skipped"`
}

// UpdateRecord defines what may be modified on an existing Record.
// Assessment identity fields are immutable post-creation.
type UpdateRecord struct {
	ObtainedMarks *float64 `json:"obtained_marks" validate:"omitempty,gte=0"`
	Remarks       *string  `json:"remarks"`
}

func (ur *UpdateRecord) Validate(validate *validator.Validate) error {
	return validate.Struct(ur)
}

// PublishRecords toggles visibility of one or more records, no recomputation.
type PublishRecords struct {
	IDs         []string `json:"ids" validate:"required,min=1"`
	IsPublished bool     `json:"is_published"`
}

func (pr *PublishRecords) Validate(validate *validator.Validate) error {
	return validate.Struct(pr)
}

type QueryFilter struct {
	StudentID      string `query:"student_id"`
	ClassID        string `query:"class_id"`
	AssessmentType string `query:"assessment_type"`
	AssessmentID   string `query:"assessment_id"`
	// PublishedOnly gates student-facing reads; staff paths leave it unset.
	PublishedOnly bool `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.ClassID = core.CleanString(qf.ClassID)
	qf.AssessmentType = core.CleanString(qf.AssessmentType, true /* lower */)
	qf.AssessmentID = core.CleanString(qf.AssessmentID)
}

// Statistics aggregates a class's grade book. AverageGrade is the band of the
// mean percentage, not an average of per-student letter grades.
type Statistics struct {
	TotalStudents     int            `json:"total_students"`
	AveragePercentage float64        `json:"average_percentage"`
	AverageGrade      string         `json:"average_grade"`
	GradeDistribution map[string]int `json:"grade_distribution"`
	AssessmentTypes   []string       `json:"assessment_types"`
}

// validators

var (
	typeTag  = "assessmenttype"
	typeText = "assessment type must be one of: assignment, quiz, midterm, final, total"
)

// InitValidators registers this package's custom validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(typeTag, func(fl validator.FieldLevel) bool {
		return ValidAssessmentType(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, typeTag, typeText)
}
