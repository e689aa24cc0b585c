package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-dashboard-api/internal/dto"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
)

type classRepository interface {
	FindByID(ctx context.Context, id int) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id int) error
}

// ClassService manages classes. All mutations are admin only.
type ClassService struct {
	repo      classRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, validate *validation.Validator, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns a class.
func (s *ClassService) Get(ctx context.Context, id int) (*models.Class, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a class and returns its id.
func (s *ClassService) Create(ctx context.Context, actor *models.Actor, req dto.ClassRequest) (int, error) {
	if err := allowCreate(actor, models.RoleAdmin); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	class := classFromRequest(req)
	if err := s.repo.Create(ctx, class); err != nil {
		return 0, err
	}
	return class.ID, nil
}

// Update changes a class. Capacity may not drop below the current enrollment.
func (s *ClassService) Update(ctx context.Context, actor *models.Actor, req dto.ClassRequest) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	return s.repo.Update(ctx, classFromRequest(req))
}

// Delete removes a class that nothing references any more.
func (s *ClassService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func classFromRequest(req dto.ClassRequest) *models.Class {
	return &models.Class{
		ID:           req.ID,
		Name:         strings.TrimSpace(req.Name),
		Capacity:     req.Capacity,
		GradeID:      req.GradeID,
		SupervisorID: optionalString(req.SupervisorID),
	}
}
