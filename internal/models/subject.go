package models

// Subject represents an academic subject taught by any number of teachers.
type Subject struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// TeacherIDs is nil when the teacher set is not loaded or must be left unchanged.
	TeacherIDs []string `db:"-" json:"teachers"`
}
