package dto

import "time"

// EventRequest defines the payload for creating or updating an event. Omitting ClassID makes the
// event school-wide, also on update.
type EventRequest struct {
	ID          int       `json:"id,omitempty"`
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description" validate:"required"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required"`
	ClassID     *int      `json:"classId,omitempty" validate:"omitempty,gt=0"`
}

// AnnouncementRequest defines the payload for creating or updating an announcement.
type AnnouncementRequest struct {
	ID          int       `json:"id,omitempty"`
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	ClassID     *int      `json:"classId,omitempty" validate:"omitempty,gt=0"`
}
