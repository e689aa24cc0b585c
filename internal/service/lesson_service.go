package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-dashboard-api/internal/dto"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
)

type lessonRepository interface {
	FindByID(ctx context.Context, id int) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id int, teacherID string) error
}

// LessonService manages lessons. Teachers may only manage lessons they teach.
type LessonService struct {
	repo      lessonRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewLessonService constructs a LessonService.
func NewLessonService(repo lessonRepository, validate *validation.Validator, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns a lesson.
func (s *LessonService) Get(ctx context.Context, id int) (*models.Lesson, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a lesson. A teacher may only create lessons taught by themself.
func (s *LessonService) Create(ctx context.Context, actor *models.Actor, req dto.LessonRequest) (int, error) {
	if err := allowCreate(actor, staffRoles...); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	if !ownsLesson(actor, req.TeacherID) {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "Teachers can only create their own lessons.")
	}
	lesson := lessonFromRequest(req)
	if err := s.repo.Create(ctx, lesson); err != nil {
		return 0, err
	}
	return lesson.ID, nil
}

// Update changes a lesson. A teacher may neither edit another teacher's lesson nor hand theirs
// over to someone else.
func (s *LessonService) Update(ctx context.Context, actor *models.Actor, req dto.LessonRequest) error {
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
	if !ownsLesson(actor, current.TeacherID) || !ownsLesson(actor, req.TeacherID) {
		return appErrors.Clone(appErrors.ErrForbidden, "Teachers can only update their own lessons.")
	}
	return s.repo.Update(ctx, lessonFromRequest(req))
}

// Delete removes a lesson. For teachers the delete is scoped to their own lessons.
func (s *LessonService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	if err := requireRole(actor, staffRoles...); err != nil {
		return err
	}
	scope := ""
	if actor.Role == models.RoleTeacher {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current.TeacherID != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "Teachers can only delete their own lessons.")
		}
		scope = actor.ID
	}
	return s.repo.Delete(ctx, id, scope)
}

func lessonFromRequest(req dto.LessonRequest) *models.Lesson {
	return &models.Lesson{
		ID:        req.ID,
		Name:      req.Name,
		Day:       models.Weekday(req.Day),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		SubjectID: req.SubjectID,
		ClassID:   req.ClassID,
		TeacherID: req.TeacherID,
	}
}
