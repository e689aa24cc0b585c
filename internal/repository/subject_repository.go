package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-dashboard-api/internal/models"
)

// SubjectRepository manages persistence for subjects and their teacher assignments.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID fetches a subject together with its teacher ids.
func (r *SubjectRepository) FindByID(ctx context.Context, id int) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, `SELECT id, name FROM subjects WHERE id = $1`, id); err != nil {
		return nil, err
	}
	subject.TeacherIDs = []string{}
	if err := r.db.SelectContext(ctx, &subject.TeacherIDs, `SELECT teacher_id FROM teacher_subjects WHERE subject_id = $1 ORDER BY teacher_id`, id); err != nil {
		return nil, fmt.Errorf("list subject teachers: %w", err)
	}
	return &subject, nil
}

// Create inserts a subject and connects the given teachers.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create subject: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.QueryRowxContext(ctx, `INSERT INTO subjects (name) VALUES ($1) RETURNING id`, subject.Name).Scan(&subject.ID); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	if err := connectSubjectTeachers(ctx, tx, subject.ID, subject.TeacherIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create subject: %w", err)
	}
	return nil
}

// Update renames a subject. A non-nil TeacherIDs replaces the full teacher set.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update subject: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE subjects SET name = $2 WHERE id = $1`, subject.ID, subject.Name)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	if err := expectAffected(res, "update subject"); err != nil {
		return err
	}

	if subject.TeacherIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE subject_id = $1`, subject.ID); err != nil {
			return fmt.Errorf("clear subject teachers: %w", err)
		}
		if err := connectSubjectTeachers(ctx, tx, subject.ID, subject.TeacherIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update subject: %w", err)
	}
	return nil
}

// Delete removes a subject and its teacher links. Lessons still teaching it surface as a foreign
// key violation.
func (r *SubjectRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete subject: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE subject_id = $1`, id); err != nil {
		return fmt.Errorf("clear subject teachers: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if err := expectAffected(res, "delete subject"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete subject: %w", err)
	}
	return nil
}

func connectSubjectTeachers(ctx context.Context, tx *sqlx.Tx, subjectID int, teacherIDs []string) error {
	for _, teacherID := range teacherIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO teacher_subjects (teacher_id, subject_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, teacherID, subjectID); err != nil {
			return fmt.Errorf("connect subject teacher: %w", err)
		}
	}
	return nil
}
