package dto

import "time"

// ClassRequest defines the payload for creating or updating a class.
type ClassRequest struct {
	ID           int    `json:"id,omitempty"`
	Name         string `json:"name" validate:"required,max=50"`
	Capacity     int    `json:"capacity" validate:"required,min=1"`
	GradeID      int    `json:"gradeId" validate:"required,gt=0"`
	SupervisorID string `json:"supervisorId,omitempty"`
}

// SubjectRequest defines the payload for creating or updating a subject.
type SubjectRequest struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name" validate:"required,max=100"`
	// Teachers is additive on create and replaces the subject's teacher set on update.
	Teachers []string `json:"teachers,omitempty" validate:"omitempty,dive,required"`
}

// LessonRequest defines the payload for creating or updating a lesson.
type LessonRequest struct {
	ID        int       `json:"id,omitempty"`
	Name      string    `json:"name" validate:"required,max=100"`
	Day       string    `json:"day" validate:"required,weekday"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
	SubjectID int       `json:"subjectId" validate:"required,gt=0"`
	ClassID   int       `json:"classId" validate:"required,gt=0"`
	TeacherID string    `json:"teacherId" validate:"required"`
}

// ExamRequest defines the payload for creating or updating an exam.
type ExamRequest struct {
	ID        int       `json:"id,omitempty"`
	Title     string    `json:"title" validate:"required,max=255"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
	LessonID  int       `json:"lessonId" validate:"required,gt=0"`
}

// AssignmentRequest defines the payload for creating or updating an assignment.
type AssignmentRequest struct {
	ID        int       `json:"id,omitempty"`
	Title     string    `json:"title" validate:"required,max=255"`
	StartDate time.Time `json:"startDate" validate:"required"`
	DueDate   time.Time `json:"dueDate" validate:"required"`
	LessonID  int       `json:"lessonId" validate:"required,gt=0"`
}

// ResultRequest defines the payload for creating or updating a result. At most one of ExamID and
// AssignmentID may be set.
type ResultRequest struct {
	ID           int    `json:"id,omitempty"`
	Score        int    `json:"score" validate:"gte=0,lte=100"`
	StudentID    string `json:"studentId" validate:"required"`
	ExamID       *int   `json:"examId,omitempty" validate:"omitempty,gt=0"`
	AssignmentID *int   `json:"assignmentId,omitempty" validate:"omitempty,gt=0"`
}
