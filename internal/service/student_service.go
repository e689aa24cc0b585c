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

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string, guard models.DeleteGuard) error
}

type enrollmentReader interface {
	Enrollment(ctx context.Context, classID int) (*models.Enrollment, error)
	GradeExists(ctx context.Context, gradeID int) (bool, error)
}

// StudentService orchestrates student mutations together with their identity records.
type StudentService struct {
	repo      studentRepository
	classes   enrollmentReader
	lifecycle *PersonLifecycle
	guard     *IntegrityGuard
	validator *validation.Validator
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, classes enrollmentReader, lifecycle *PersonLifecycle, guard *IntegrityGuard, validate *validation.Validator, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if guard == nil {
		guard = NewIntegrityGuard()
	}
	return &StudentService{repo: repo, classes: classes, lifecycle: lifecycle, guard: guard, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns a student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	return s.repo.FindByID(ctx, id)
}

// Create checks the class and grade before provisioning so a full class never leaves an identity
// behind. The seat is reserved again under a row lock when the student is stored.
func (s *StudentService) Create(ctx context.Context, actor *models.Actor, req dto.StudentRequest) (string, error) {
	if err := allowCreate(actor, models.RoleAdmin); err != nil {
		return "", err
	}
	req.ID = ""
	if err := s.validator.Struct(req); err != nil {
		return "", err
	}
	if err := s.checkPlacement(ctx, req.ClassID, req.GradeID, true); err != nil {
		return "", err
	}

	return s.lifecycle.Create(ctx, models.EntityStudent, studentPerson(req).profile(models.RoleStudent), func(ctx context.Context, id string) error {
		return s.repo.Create(ctx, studentFromRequest(id, req))
	})
}

// Update changes the student and its identity profile. Moving to another class needs a free seat.
func (s *StudentService) Update(ctx context.Context, actor *models.Actor, req dto.StudentRequest) error {
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
	if req.ClassID != current.ClassID || req.GradeID != current.GradeID {
		if err := s.checkPlacement(ctx, req.ClassID, req.GradeID, req.ClassID != current.ClassID); err != nil {
			return err
		}
	}
	previous := recordProfile(current.Username, current.Name, current.Surname, current.Email, models.RoleStudent)

	return s.lifecycle.Update(ctx, models.EntityStudent, req.ID, studentPerson(req).profile(models.RoleStudent), previous, func(ctx context.Context) error {
		student := studentFromRequest(req.ID, req)
		student.CreatedAt = current.CreatedAt
		return s.repo.Update(ctx, student)
	})
}

// Delete removes a student together with its results and attendances.
func (s *StudentService) Delete(ctx context.Context, actor *models.Actor, id string) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	return s.lifecycle.Delete(ctx, models.EntityStudent, id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id, s.guard.For(models.EntityStudent))
	})
}

// checkPlacement verifies, in order, that the class exists, has a free seat and that the grade
// exists.
func (s *StudentService) checkPlacement(ctx context.Context, classID, gradeID int, needSeat bool) error {
	enrollment, err := s.classes.Enrollment(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Validation(msgClassMissing, []appErrors.FieldViolation{{Field: "classId", Message: msgClassMissing}}, err)
		}
		return err
	}
	if needSeat && enrollment.Full() {
		return appErrors.ErrCapacity
	}

	ok, err := s.classes.GradeExists(ctx, gradeID)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Validation(msgGradeMissing, []appErrors.FieldViolation{{Field: "gradeId", Message: msgGradeMissing}}, nil)
	}
	return nil
}

func studentPerson(req dto.StudentRequest) personFields {
	return personFields{username: req.Username, password: req.Password, name: req.Name, surname: req.Surname, email: req.Email}
}

func studentFromRequest(id string, req dto.StudentRequest) *models.Student {
	return &models.Student{
		ID:        id,
		Username:  req.Username,
		Name:      req.Name,
		Surname:   req.Surname,
		Email:     optionalString(req.Email),
		Phone:     optionalString(req.Phone),
		Address:   req.Address,
		Img:       optionalString(req.Img),
		BloodType: req.BloodType,
		Sex:       models.Sex(req.Sex),
		Birthday:  req.Birthday,
		ClassID:   req.ClassID,
		GradeID:   req.GradeID,
		ParentID:  optionalString(req.ParentID),
	}
}
