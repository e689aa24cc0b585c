package models

// Class is a section of students. Enrolled students must never exceed Capacity.
type Class struct {
	ID           int     `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Capacity     int     `db:"capacity" json:"capacity"`
	GradeID      int     `db:"grade_id" json:"gradeId"`
	SupervisorID *string `db:"supervisor_id" json:"supervisorId,omitempty"`
}

// Grade is a school year level referenced by classes and students.
type Grade struct {
	ID    int `db:"id" json:"id"`
	Level int `db:"level" json:"level"`
}

// Enrollment is a class's capacity alongside its current head count.
type Enrollment struct {
	Capacity int `db:"capacity" json:"capacity"`
	Enrolled int `db:"enrolled" json:"enrolled"`
}

// Full reports whether no seat is left.
func (e Enrollment) Full() bool {
	return e.Enrolled >= e.Capacity
}
