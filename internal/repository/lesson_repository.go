package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-dashboard-api/internal/models"
)

// LessonRepository manages persistence for lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// FindByID fetches a lesson by id.
func (r *LessonRepository) FindByID(ctx context.Context, id int) (*models.Lesson, error) {
	const query = `SELECT id, name, day, start_time, end_time, subject_id, class_id, teacher_id FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Create inserts a lesson and sets its generated id.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	const query = `INSERT INTO lessons (name, day, start_time, end_time, subject_id, class_id, teacher_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, lesson.Name, lesson.Day, lesson.StartTime, lesson.EndTime, lesson.SubjectID, lesson.ClassID, lesson.TeacherID).Scan(&lesson.ID); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update modifies a lesson.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	const query = `UPDATE lessons SET name = :name, day = :day, start_time = :start_time, end_time = :end_time,
		subject_id = :subject_id, class_id = :class_id, teacher_id = :teacher_id WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, lesson)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return expectAffected(res, "update lesson")
}

// Delete removes a lesson. A non-empty teacherID restricts the delete to that teacher's lesson, so
// a lesson reassigned concurrently is left alone.
func (r *LessonRepository) Delete(ctx context.Context, id int, teacherID string) error {
	query := `DELETE FROM lessons WHERE id = $1`
	args := []interface{}{id}
	if teacherID != "" {
		query += ` AND teacher_id = $2`
		args = append(args, teacherID)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return expectAffected(res, "delete lesson")
}
