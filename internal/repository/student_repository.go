package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-dashboard-api/internal/models"
)

const studentColumns = "id, username, name, surname, email, phone, address, img, blood_type, sex, birthday, class_id, grade_id, parent_id, created_at"

var studentDelete = guardedDelete{
	entity: "student",
	lock:   `SELECT id FROM students WHERE id = $1 FOR UPDATE`,
	dependents: []dependentQuery{
		{
			relation: models.RelationResults,
			count:    `SELECT COUNT(*) FROM results WHERE student_id = $1`,
			remove:   `DELETE FROM results WHERE student_id = $1`,
		},
		{
			relation: models.RelationAttendances,
			count:    `SELECT COUNT(*) FROM attendances WHERE student_id = $1`,
			remove:   `DELETE FROM attendances WHERE student_id = $1`,
		},
	},
	remove: `DELETE FROM students WHERE id = $1`,
}

// StudentRepository manages persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a student after reserving a seat in its class. The class row stays locked until
// commit so concurrent enrollments into the same class are serialised.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := reserveSeat(ctx, tx, student.ClassID); err != nil {
		return err
	}

	const query = `INSERT INTO students (id, username, name, surname, email, phone, address, img, blood_type, sex, birthday, class_id, grade_id, parent_id, created_at)
		VALUES (:id, :username, :name, :surname, :email, :phone, :address, :img, :blood_type, :sex, :birthday, :class_id, :grade_id, :parent_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	return nil
}

// Update modifies a student. Moving to another class reserves a seat there first.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var currentClass int
	if err := tx.GetContext(ctx, &currentClass, `SELECT class_id FROM students WHERE id = $1 FOR UPDATE`, student.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock student: %w", err)
	}
	if currentClass != student.ClassID {
		if err := reserveSeat(ctx, tx, student.ClassID); err != nil {
			return err
		}
	}

	const query = `UPDATE students SET username = :username, name = :name, surname = :surname, email = :email, phone = :phone,
		address = :address, img = :img, blood_type = :blood_type, sex = :sex, birthday = :birthday,
		class_id = :class_id, grade_id = :grade_id, parent_id = :parent_id WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	return nil
}

// Delete removes a student, cascading its results and attendances when guard plans it.
func (r *StudentRepository) Delete(ctx context.Context, id string, guard models.DeleteGuard) error {
	return studentDelete.run(ctx, r.db, id, guard)
}

// reserveSeat locks the class row and fails with ErrClassFull when no seat is left.
func reserveSeat(ctx context.Context, tx *sqlx.Tx, classID int) error {
	var capacity int
	if err := tx.GetContext(ctx, &capacity, `SELECT capacity FROM classes WHERE id = $1 FOR UPDATE`, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrClassNotFound
		}
		return fmt.Errorf("lock class: %w", err)
	}
	var enrolled int
	if err := tx.GetContext(ctx, &enrolled, `SELECT COUNT(*) FROM students WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("count class students: %w", err)
	}
	if enrolled >= capacity {
		return ErrClassFull
	}
	return nil
}
