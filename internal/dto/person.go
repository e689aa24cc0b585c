package dto

import "time"

// TeacherRequest defines the payload for creating or updating a teacher. ID is set from the route
// on update; Password is only required when creating.
type TeacherRequest struct {
	ID        string    `json:"id,omitempty"`
	Username  string    `json:"username" validate:"required,max=20"`
	Password  string    `json:"password,omitempty" validate:"required_without=ID"`
	Name      string    `json:"name" validate:"required,max=100"`
	Surname   string    `json:"surname" validate:"required,max=100"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string    `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address   string    `json:"address" validate:"required,max=255"`
	Img       string    `json:"img,omitempty" validate:"omitempty,url"`
	BloodType string    `json:"bloodType" validate:"required,max=5"`
	Sex       string    `json:"sex" validate:"required,sex"`
	Birthday  time.Time `json:"birthday" validate:"required"`
	// Subjects is additive on create and replaces the teacher's subject set on update. Omit it on
	// update to leave the set unchanged.
	Subjects []int `json:"subjects,omitempty" validate:"omitempty,dive,gt=0"`
}

// StudentRequest defines the payload for creating or updating a student.
type StudentRequest struct {
	ID        string    `json:"id,omitempty"`
	Username  string    `json:"username" validate:"required,max=20"`
	Password  string    `json:"password,omitempty" validate:"required_without=ID"`
	Name      string    `json:"name" validate:"required,max=100"`
	Surname   string    `json:"surname" validate:"required,max=100"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string    `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address   string    `json:"address" validate:"required,max=255"`
	Img       string    `json:"img,omitempty" validate:"omitempty,url"`
	BloodType string    `json:"bloodType" validate:"required,max=5"`
	Sex       string    `json:"sex" validate:"required,sex"`
	Birthday  time.Time `json:"birthday" validate:"required"`
	GradeID   int       `json:"gradeId" validate:"required,gt=0"`
	ClassID   int       `json:"classId" validate:"required,gt=0"`
	ParentID  string    `json:"parentId,omitempty"`
}

// ParentRequest defines the payload for creating or updating a parent.
type ParentRequest struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username" validate:"required,max=20"`
	Password string `json:"password,omitempty" validate:"required_without=ID"`
	Name     string `json:"name" validate:"required,max=100"`
	Surname  string `json:"surname" validate:"required,max=100"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Address  string `json:"address" validate:"required,max=255"`
}
