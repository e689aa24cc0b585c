package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-dashboard-api/internal/dto"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
)

type parentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	Create(ctx context.Context, parent *models.Parent) error
	Update(ctx context.Context, parent *models.Parent) error
	Delete(ctx context.Context, id string, guard models.DeleteGuard) error
}

// ParentService orchestrates parent mutations together with their identity records.
type ParentService struct {
	repo      parentRepository
	lifecycle *PersonLifecycle
	guard     *IntegrityGuard
	validator *validation.Validator
	logger    *zap.Logger
}

// NewParentService constructs a ParentService.
func NewParentService(repo parentRepository, lifecycle *PersonLifecycle, guard *IntegrityGuard, validate *validation.Validator, logger *zap.Logger) *ParentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if guard == nil {
		guard = NewIntegrityGuard()
	}
	return &ParentService{repo: repo, lifecycle: lifecycle, guard: guard, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns a parent.
func (s *ParentService) Get(ctx context.Context, id string) (*models.Parent, error) {
	return s.repo.FindByID(ctx, id)
}

// Create provisions the parent's identity and stores the parent.
func (s *ParentService) Create(ctx context.Context, actor *models.Actor, req dto.ParentRequest) (string, error) {
	if err := allowCreate(actor, models.RoleAdmin); err != nil {
		return "", err
	}
	req.ID = ""
	if err := s.validator.Struct(req); err != nil {
		return "", err
	}

	return s.lifecycle.Create(ctx, models.EntityParent, parentPerson(req).profile(models.RoleParent), func(ctx context.Context, id string) error {
		return s.repo.Create(ctx, parentFromRequest(id, req))
	})
}

// Update changes the parent and its identity profile.
func (s *ParentService) Update(ctx context.Context, actor *models.Actor, req dto.ParentRequest) error {
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
	previous := recordProfile(current.Username, current.Name, current.Surname, current.Email, models.RoleParent)

	return s.lifecycle.Update(ctx, models.EntityParent, req.ID, parentPerson(req).profile(models.RoleParent), previous, func(ctx context.Context) error {
		parent := parentFromRequest(req.ID, req)
		parent.CreatedAt = current.CreatedAt
		return s.repo.Update(ctx, parent)
	})
}

// Delete removes a parent without linked students. Only admins may delete parents.
func (s *ParentService) Delete(ctx context.Context, actor *models.Actor, id string) error {
	if !actor.Is(models.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrForbidden, "Only admins can delete parents")
	}
	return s.lifecycle.Delete(ctx, models.EntityParent, id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id, s.guard.For(models.EntityParent))
	})
}

func parentPerson(req dto.ParentRequest) personFields {
	return personFields{username: req.Username, password: req.Password, name: req.Name, surname: req.Surname, email: req.Email}
}

func parentFromRequest(id string, req dto.ParentRequest) *models.Parent {
	return &models.Parent{
		ID:       id,
		Username: req.Username,
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    optionalString(req.Email),
		Phone:    req.Phone,
		Address:  req.Address,
	}
}
