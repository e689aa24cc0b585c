package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-dashboard-api/internal/models"
)

// ExamRepository manages persistence for exams.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// FindByID fetches an exam by id.
func (r *ExamRepository) FindByID(ctx context.Context, id int) (*models.Exam, error) {
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, `SELECT id, title, start_time, end_time, lesson_id FROM exams WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// Create inserts an exam and sets its generated id.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	const query = `INSERT INTO exams (title, start_time, end_time, lesson_id) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, exam.Title, exam.StartTime, exam.EndTime, exam.LessonID).Scan(&exam.ID); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// Update modifies an exam.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	const query = `UPDATE exams SET title = :title, start_time = :start_time, end_time = :end_time, lesson_id = :lesson_id WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, exam)
	if err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return expectAffected(res, "update exam")
}

// Delete removes an exam. Results still graded against it surface as a foreign key violation.
func (r *ExamRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return expectAffected(res, "delete exam")
}

// AssignmentRepository manages persistence for assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindByID fetches an assignment by id.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, `SELECT id, title, start_date, due_date, lesson_id FROM assignments WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create inserts an assignment and sets its generated id.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	const query = `INSERT INTO assignments (title, start_date, due_date, lesson_id) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, assignment.Title, assignment.StartDate, assignment.DueDate, assignment.LessonID).Scan(&assignment.ID); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update modifies an assignment.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	const query = `UPDATE assignments SET title = :title, start_date = :start_date, due_date = :due_date, lesson_id = :lesson_id WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return expectAffected(res, "update assignment")
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return expectAffected(res, "delete assignment")
}

// ResultRepository manages persistence for results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs a ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// FindByID fetches a result by id.
func (r *ResultRepository) FindByID(ctx context.Context, id int) (*models.Result, error) {
	var result models.Result
	if err := r.db.GetContext(ctx, &result, `SELECT id, score, student_id, exam_id, assignment_id FROM results WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create inserts a result and sets its generated id.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	const query = `INSERT INTO results (score, student_id, exam_id, assignment_id) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, result.Score, result.StudentID, result.ExamID, result.AssignmentID).Scan(&result.ID); err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// Update modifies a result. Both references are always written, so an absent one becomes NULL.
func (r *ResultRepository) Update(ctx context.Context, result *models.Result) error {
	const query = `UPDATE results SET score = :score, student_id = :student_id, exam_id = :exam_id, assignment_id = :assignment_id WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, result)
	if err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	return expectAffected(res, "update result")
}

// Delete removes a result.
func (r *ResultRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return expectAffected(res, "delete result")
}
