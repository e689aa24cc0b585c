package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-dashboard-api/internal/dto"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
)

type teacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string, guard models.DeleteGuard) error
}

// TeacherService orchestrates teacher mutations together with their identity records.
type TeacherService struct {
	repo      teacherRepository
	lifecycle *PersonLifecycle
	guard     *IntegrityGuard
	validator *validation.Validator
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, lifecycle *PersonLifecycle, guard *IntegrityGuard, validate *validation.Validator, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if guard == nil {
		guard = NewIntegrityGuard()
	}
	return &TeacherService{repo: repo, lifecycle: lifecycle, guard: guard, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns a teacher with its subject ids.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	return s.repo.FindByID(ctx, id)
}

// Create provisions the teacher's identity and stores the teacher under the provider id.
func (s *TeacherService) Create(ctx context.Context, actor *models.Actor, req dto.TeacherRequest) (string, error) {
	if err := allowCreate(actor, models.RoleAdmin); err != nil {
		return "", err
	}
	req.ID = ""
	if err := s.validator.Struct(req); err != nil {
		return "", err
	}

	return s.lifecycle.Create(ctx, models.EntityTeacher, teacherPerson(req).profile(models.RoleTeacher), func(ctx context.Context, id string) error {
		teacher := teacherFromRequest(id, req)
		return s.repo.Create(ctx, teacher)
	})
}

// Update changes the teacher and its identity profile. A present subjects list replaces the set.
func (s *TeacherService) Update(ctx context.Context, actor *models.Actor, req dto.TeacherRequest) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	current, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return err
	}
	previous := recordProfile(current.Username, current.Name, current.Surname, current.Email, models.RoleTeacher)

	return s.lifecycle.Update(ctx, models.EntityTeacher, req.ID, teacherPerson(req).profile(models.RoleTeacher), previous, func(ctx context.Context) error {
		teacher := teacherFromRequest(req.ID, req)
		teacher.CreatedAt = current.CreatedAt
		return s.repo.Update(ctx, teacher)
	})
}

// Delete removes a teacher who supervises no class and teaches no lesson. Subject links are
// detached in the same transaction.
func (s *TeacherService) Delete(ctx context.Context, actor *models.Actor, id string) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	return s.lifecycle.Delete(ctx, models.EntityTeacher, id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id, s.guard.For(models.EntityTeacher))
	})
}

func teacherPerson(req dto.TeacherRequest) personFields {
	return personFields{username: req.Username, password: req.Password, name: req.Name, surname: req.Surname, email: req.Email}
}

func teacherFromRequest(id string, req dto.TeacherRequest) *models.Teacher {
	return &models.Teacher{
		ID:         id,
		Username:   req.Username,
		Name:       req.Name,
		Surname:    req.Surname,
		Email:      optionalString(req.Email),
		Phone:      optionalString(req.Phone),
		Address:    req.Address,
		Img:        optionalString(req.Img),
		BloodType:  req.BloodType,
		Sex:        models.Sex(req.Sex),
		Birthday:   req.Birthday,
		SubjectIDs: req.Subjects,
	}
}
