package models

import "time"

// Weekday is the school day a lesson recurs on.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
)

// Lesson is a recurring slot of a subject taught to a class by one teacher.
type Lesson struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Day       Weekday   `db:"day" json:"day"`
	StartTime time.Time `db:"start_time" json:"startTime"`
	EndTime   time.Time `db:"end_time" json:"endTime"`
	SubjectID int       `db:"subject_id" json:"subjectId"`
	ClassID   int       `db:"class_id" json:"classId"`
	TeacherID string    `db:"teacher_id" json:"teacherId"`
}

// Exam is a timed assessment attached to a lesson.
type Exam struct {
	ID        int       `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	StartTime time.Time `db:"start_time" json:"startTime"`
	EndTime   time.Time `db:"end_time" json:"endTime"`
	LessonID  int       `db:"lesson_id" json:"lessonId"`
}

// Assignment is take-home work attached to a lesson.
type Assignment struct {
	ID        int       `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	StartDate time.Time `db:"start_date" json:"startDate"`
	DueDate   time.Time `db:"due_date" json:"dueDate"`
	LessonID  int       `db:"lesson_id" json:"lessonId"`
}

// Result is a student's score on either an exam or an assignment, never both.
type Result struct {
	ID           int    `db:"id" json:"id"`
	Score        int    `db:"score" json:"score"`
	StudentID    string `db:"student_id" json:"studentId"`
	ExamID       *int   `db:"exam_id" json:"examId,omitempty"`
	AssignmentID *int   `db:"assignment_id" json:"assignmentId,omitempty"`
}
