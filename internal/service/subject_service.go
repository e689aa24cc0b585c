package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-dashboard-api/internal/dto"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
)

type subjectRepository interface {
	FindByID(ctx context.Context, id int) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id int) error
}

// SubjectService manages subjects and their teacher sets. All mutations are admin only.
type SubjectService struct {
	repo      subjectRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, validate *validation.Validator, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns a subject with its teacher ids.
func (s *SubjectService) Get(ctx context.Context, id int) (*models.Subject, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a subject connected to the given teachers.
func (s *SubjectService) Create(ctx context.Context, actor *models.Actor, req dto.SubjectRequest) (int, error) {
	if err := allowCreate(actor, models.RoleAdmin); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	subject := &models.Subject{Name: strings.TrimSpace(req.Name), TeacherIDs: req.Teachers}
	if err := s.repo.Create(ctx, subject); err != nil {
		return 0, err
	}
	return subject.ID, nil
}

// Update renames a subject. A present teachers list replaces the whole set, an absent one keeps it.
func (s *SubjectService) Update(ctx context.Context, actor *models.Actor, req dto.SubjectRequest) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	return s.repo.Update(ctx, &models.Subject{ID: req.ID, Name: strings.TrimSpace(req.Name), TeacherIDs: req.Teachers})
}

// Delete removes a subject no lesson teaches.
func (s *SubjectService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
