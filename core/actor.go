package core

// Actor types
const (
	ActorStudent = "student"
	ActorTeacher = "teacher"
	ActorAdmin   = "admin"
)

// Actor identifies who performs an operation. It is derived from the request
// credentials and passed explicitly into every service call; services never
// fall back to a hard-coded identity.
type Actor struct {
	ID   string
	Type string
	Name string
}

func (a Actor) IsStudent() bool { return a.Type == ActorStudent }

// IsStaff reports whether the actor may see unpublished records and mutate ledgers.
func (a Actor) IsStaff() bool { return a.Type == ActorTeacher || a.Type == ActorAdmin }
