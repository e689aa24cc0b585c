package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-dashboard-api/internal/models"
)

const teacherColumns = "id, username, name, surname, email, phone, address, img, blood_type, sex, birthday, created_at"

var teacherDelete = guardedDelete{
	entity: "teacher",
	lock:   `SELECT id FROM teachers WHERE id = $1 FOR UPDATE`,
	dependents: []dependentQuery{
		{relation: models.RelationClasses, count: `SELECT COUNT(*) FROM classes WHERE supervisor_id = $1`},
		{relation: models.RelationLessons, count: `SELECT COUNT(*) FROM lessons WHERE teacher_id = $1`},
		{
			relation: models.RelationSubjects,
			count:    `SELECT COUNT(*) FROM teacher_subjects WHERE teacher_id = $1`,
			remove:   `DELETE FROM teacher_subjects WHERE teacher_id = $1`,
		},
	},
	remove: `DELETE FROM teachers WHERE id = $1`,
}

// TeacherRepository manages persistence for teachers and their subject assignments.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID fetches a teacher together with its subject ids.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	teacher.SubjectIDs = []int{}
	if err := r.db.SelectContext(ctx, &teacher.SubjectIDs, `SELECT subject_id FROM teacher_subjects WHERE teacher_id = $1 ORDER BY subject_id`, id); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return &teacher, nil
}

// Create inserts a teacher and connects the given subjects.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT INTO teachers (id, username, name, surname, email, phone, address, img, blood_type, sex, birthday, created_at)
		VALUES (:id, :username, :name, :surname, :email, :phone, :address, :img, :blood_type, :sex, :birthday, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	if err := connectTeacherSubjects(ctx, tx, teacher.ID, teacher.SubjectIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create teacher: %w", err)
	}
	return nil
}

// Update modifies a teacher. A non-nil SubjectIDs replaces the full subject set.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update teacher: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `UPDATE teachers SET username = :username, name = :name, surname = :surname, email = :email, phone = :phone,
		address = :address, img = :img, blood_type = :blood_type, sex = :sex, birthday = :birthday WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, teacher)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	if err := expectAffected(res, "update teacher"); err != nil {
		return err
	}

	if teacher.SubjectIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, teacher.ID); err != nil {
			return fmt.Errorf("clear teacher subjects: %w", err)
		}
		if err := connectTeacherSubjects(ctx, tx, teacher.ID, teacher.SubjectIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher once guard approves its dependents. Subject links are detached in the
// same transaction when the plan says so.
func (r *TeacherRepository) Delete(ctx context.Context, id string, guard models.DeleteGuard) error {
	return teacherDelete.run(ctx, r.db, id, guard)
}

func connectTeacherSubjects(ctx context.Context, tx *sqlx.Tx, teacherID string, subjectIDs []int) error {
	for _, subjectID := range subjectIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO teacher_subjects (teacher_id, subject_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, teacherID, subjectID); err != nil {
			return fmt.Errorf("connect teacher subject: %w", err)
		}
	}
	return nil
}
