package notification

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Notification types
const (
	TypeMessage      = "message"
	TypeAssignment   = "assignment"
	TypeAnnouncement = "announcement"
	TypeQuiz         = "quiz"
	TypeMaterial     = "material"
	TypeEvent        = "event"
	TypeGrade        = "grade"
	TypeAttendance   = "attendance"
)

// Notification is one recipient's copy of a fanned-out event. Content is never
// edited after creation; only the IsRead/IsDeleted flags change.
type Notification struct {
	ID            string            `json:"id"`
	RecipientID   string            `json:"recipient_id"`
	RecipientType string            `json:"recipient_type"`
	SenderID      string            `json:"sender_id"`
	SenderType    string            `json:"sender_type"`
	SenderName    string            `json:"sender_name"`
	Type          string            `json:"type"`
	Title         string            `json:"title"`
	Message       string            `json:"message"`
	RelatedID     string            `json:"related_id,omitempty"`
	RelatedType   string            `json:"related_type,omitempty"`
	IsRead        bool              `json:"is_read"`
	IsDeleted     bool              `json:"-"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"` // UTC
}

// Recipient addresses one copy of an event. Email is optional; when present
// the notification is mirrored to the email channel.
type Recipient struct {
	ID    string `json:"id" validate:"required"`
	Type  string `json:"type" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

// Event is a single logical occurrence to replicate into one notification row
// per recipient. The sender identity comes from the acting user, never from a
// compile-time default.
type Event struct {
	Type        string            `json:"type" validate:"required"`
	Title       string            `json:"title" validate:"required"`
	Message     string            `json:"message" validate:"required"`
	Recipients  []Recipient       `json:"recipients" validate:"required,min=1,dive"`
	RelatedID   string            `json:"related_id"`
	RelatedType string            `json:"related_type"`
	Metadata    map[string]string `json:"metadata"`
}

func (ev *Event) Validate(validate *validator.Validate) error {
	ev.Type = core.CleanString(ev.Type, true /* lower */)
	ev.Title = core.CleanString(ev.Title)
	return validate.Struct(ev)
}
