package models

import "time"

// Event is a scheduled happening; a nil ClassID makes it school-wide.
type Event struct {
	ID          int       `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	StartTime   time.Time `db:"start_time" json:"startTime"`
	EndTime     time.Time `db:"end_time" json:"endTime"`
	ClassID     *int      `db:"class_id" json:"classId,omitempty"`
}

// Announcement is a dated notice; a nil ClassID makes it school-wide.
type Announcement struct {
	ID          int       `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`
	ClassID     *int      `db:"class_id" json:"classId,omitempty"`
}
