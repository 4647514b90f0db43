package roster

import "time"

// Class is the enrollment unit students attend and get graded in.
type Class struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// PlaceholderClassName labels records whose class reference no longer resolves.
const PlaceholderClassName = "Unknown class"
