package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/school-dashboard-api/internal/dto"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
)

type examRepository interface {
	FindByID(ctx context.Context, id int) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id int) error
}

type lessonReader interface {
	FindByID(ctx context.Context, id int) (*models.Lesson, error)
}

// ExamService manages exams. Teachers may only manage exams of lessons they teach.
type ExamService struct {
	repo      examRepository
	lessons   lessonReader
	validator *validation.Validator
	logger    *zap.Logger
}

// NewExamService constructs an ExamService.
func NewExamService(repo examRepository, lessons lessonReader, validate *validation.Validator, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, lessons: lessons, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns an exam.
func (s *ExamService) Get(ctx context.Context, id int) (*models.Exam, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores an exam.
func (s *ExamService) Create(ctx context.Context, actor *models.Actor, req dto.ExamRequest) (int, error) {
	if err := allowCreate(actor, staffRoles...); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	if err := s.checkLesson(ctx, actor, req.LessonID); err != nil {
		return 0, err
	}
	exam := examFromRequest(req)
	if err := s.repo.Create(ctx, exam); err != nil {
		return 0, err
	}
	return exam.ID, nil
}

// Update changes an exam. Both the current and the target lesson must belong to a teacher actor.
func (s *ExamService) Update(ctx context.Context, actor *models.Actor, req dto.ExamRequest) error {
	if err := requireRole(actor, staffRoles...); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	current, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if err := s.checkLesson(ctx, actor, current.LessonID); err != nil {
		return err
	}
	if req.LessonID != current.LessonID {
		if err := s.checkLesson(ctx, actor, req.LessonID); err != nil {
			return err
		}
	}
	return s.repo.Update(ctx, examFromRequest(req))
}

// Delete removes an exam.
func (s *ExamService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	if err := requireRole(actor, staffRoles...); err != nil {
		return err
	}
	if actor.Role == models.RoleTeacher {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkLesson(ctx, actor, current.LessonID); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

// checkLesson resolves the lesson for teacher actors and rejects lessons they do not teach.
func (s *ExamService) checkLesson(ctx context.Context, actor *models.Actor, lessonID int) error {
	if actor == nil || actor.Role != models.RoleTeacher {
		return nil
	}
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Validation(msgLessonMissing, []appErrors.FieldViolation{{Field: "lessonId", Message: msgLessonMissing}}, err)
		}
		return err
	}
	if lesson.TeacherID != actor.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "Teachers can only manage exams for their own lessons.")
	}
	return nil
}

func examFromRequest(req dto.ExamRequest) *models.Exam {
	return &models.Exam{ID: req.ID, Title: req.Title, StartTime: req.StartTime, EndTime: req.EndTime, LessonID: req.LessonID}
}

type assignmentRepository interface {
	FindByID(ctx context.Context, id int) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id int) error
}

// AssignmentService manages assignments. Admins and teachers may mutate them.
type AssignmentService struct {
	repo      assignmentRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentRepository, validate *validation.Validator, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns an assignment.
func (s *AssignmentService) Get(ctx context.Context, id int) (*models.Assignment, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores an assignment.
func (s *AssignmentService) Create(ctx context.Context, actor *models.Actor, req dto.AssignmentRequest) (int, error) {
	if err := allowCreate(actor, staffRoles...); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	assignment := assignmentFromRequest(req)
	if err := s.repo.Create(ctx, assignment); err != nil {
		return 0, err
	}
	return assignment.ID, nil
}

// Update changes an assignment.
func (s *AssignmentService) Update(ctx context.Context, actor *models.Actor, req dto.AssignmentRequest) error {
	if err := requireRole(actor, staffRoles...); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	return s.repo.Update(ctx, assignmentFromRequest(req))
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	if err := requireRole(actor, staffRoles...); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func assignmentFromRequest(req dto.AssignmentRequest) *models.Assignment {
	return &models.Assignment{ID: req.ID, Title: req.Title, StartDate: req.StartDate, DueDate: req.DueDate, LessonID: req.LessonID}
}

type resultRepository interface {
	FindByID(ctx context.Context, id int) (*models.Result, error)
	Create(ctx context.Context, result *models.Result) error
	Update(ctx context.Context, result *models.Result) error
	Delete(ctx context.Context, id int) error
}

// ResultService manages scores. A result references an exam or an assignment, never both.
type ResultService struct {
	repo      resultRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewResultService constructs a ResultService.
func NewResultService(repo resultRepository, validate *validation.Validator, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{repo: repo, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns a result.
func (s *ResultService) Get(ctx context.Context, id int) (*models.Result, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a result.
func (s *ResultService) Create(ctx context.Context, actor *models.Actor, req dto.ResultRequest) (int, error) {
	if err := allowCreate(actor, staffRoles...); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	result := resultFromRequest(req)
	if err := s.repo.Create(ctx, result); err != nil {
		return 0, err
	}
	return result.ID, nil
}

// Update changes a result. An omitted reference is cleared.
func (s *ResultService) Update(ctx context.Context, actor *models.Actor, req dto.ResultRequest) error {
	if err := requireRole(actor, staffRoles...); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	return s.repo.Update(ctx, resultFromRequest(req))
}

// Delete removes a result.
func (s *ResultService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	if err := requireRole(actor, staffRoles...); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func resultFromRequest(req dto.ResultRequest) *models.Result {
	return &models.Result{ID: req.ID, Score: req.Score, StudentID: req.StudentID, ExamID: req.ExamID, AssignmentID: req.AssignmentID}
}
