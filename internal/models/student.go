package models

import "time"

// Student represents a learner enrolled in exactly one class. ID is the identity provider user id.
type Student struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Name      string    `db:"name" json:"name"`
	Surname   string    `db:"surname" json:"surname"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   string    `db:"address" json:"address"`
	Img       *string   `db:"img" json:"img,omitempty"`
	BloodType string    `db:"blood_type" json:"bloodType"`
	Sex       Sex       `db:"sex" json:"sex"`
	Birthday  time.Time `db:"birthday" json:"birthday"`
	ClassID   int       `db:"class_id" json:"classId"`
	GradeID   int       `db:"grade_id" json:"gradeId"`
	ParentID  *string   `db:"parent_id" json:"parentId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Attendance is a per-lesson presence mark. It is only ever removed together with its student.
type Attendance struct {
	ID        int       `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	Present   bool      `db:"present" json:"present"`
	StudentID string    `db:"student_id" json:"studentId"`
	LessonID  int       `db:"lesson_id" json:"lessonId"`
}
