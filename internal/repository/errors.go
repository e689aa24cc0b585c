package repository

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrClassFull is returned when enrolling a student would exceed the class capacity.
	ErrClassFull = errors.New("class is at capacity")
	// ErrClassNotFound is returned when a student references a class that does not exist.
	ErrClassNotFound = errors.New("class not found")
	// ErrCapacityBelowEnrollment is returned when a class update would shrink capacity below the
	// number of students already enrolled.
	ErrCapacityBelowEnrollment = errors.New("capacity below current enrollment")
)

// expectAffected maps an update or delete that touched no rows to sql.ErrNoRows.
func expectAffected(res sql.Result, action string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", action, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
