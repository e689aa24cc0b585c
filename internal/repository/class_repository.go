package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-dashboard-api/internal/models"
)

// ClassRepository manages persistence for classes and looks up grades.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID fetches a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id int) (*models.Class, error) {
	const query = `SELECT id, name, capacity, grade_id, supervisor_id FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Enrollment returns the capacity and current head count of a class.
func (r *ClassRepository) Enrollment(ctx context.Context, id int) (*models.Enrollment, error) {
	const query = `SELECT c.capacity, (SELECT COUNT(*) FROM students s WHERE s.class_id = c.id) AS enrolled FROM classes c WHERE c.id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GradeExists reports whether a grade with the id exists.
func (r *ClassRepository) GradeExists(ctx context.Context, id int) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM grades WHERE id = $1 LIMIT 1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check grade: %w", err)
	}
	return true, nil
}

// Create inserts a class and sets its generated id.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	const query = `INSERT INTO classes (name, capacity, grade_id, supervisor_id) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, class.Name, class.Capacity, class.GradeID, class.SupervisorID).Scan(&class.ID); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies a class. Capacity may not drop below the students already enrolled.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update class: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var locked int
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM classes WHERE id = $1 FOR UPDATE`, class.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock class: %w", err)
	}
	var enrolled int
	if err := tx.GetContext(ctx, &enrolled, `SELECT COUNT(*) FROM students WHERE class_id = $1`, class.ID); err != nil {
		return fmt.Errorf("count class students: %w", err)
	}
	if class.Capacity < enrolled {
		return ErrCapacityBelowEnrollment
	}

	const query = `UPDATE classes SET name = :name, capacity = :capacity, grade_id = :grade_id, supervisor_id = :supervisor_id WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update class: %w", err)
	}
	return nil
}

// Delete removes a class. Students, lessons or events still pointing at it surface as a foreign
// key violation.
func (r *ClassRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return expectAffected(res, "delete class")
}
