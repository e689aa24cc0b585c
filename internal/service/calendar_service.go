package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-dashboard-api/internal/dto"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
)

type eventRepository interface {
	FindByID(ctx context.Context, id int) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id int) error
}

// EventService manages calendar events. Admins and teachers may mutate them.
type EventService struct {
	repo      eventRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, validate *validation.Validator, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns an event.
func (s *EventService) Get(ctx context.Context, id int) (*models.Event, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores an event.
func (s *EventService) Create(ctx context.Context, actor *models.Actor, req dto.EventRequest) (int, error) {
	if err := allowCreate(actor, staffRoles...); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	event := eventFromRequest(req)
	if err := s.repo.Create(ctx, event); err != nil {
		return 0, err
	}
	return event.ID, nil
}

// Update changes an event.
func (s *EventService) Update(ctx context.Context, actor *models.Actor, req dto.EventRequest) error {
	if err := requireRole(actor, staffRoles...); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	return s.repo.Update(ctx, eventFromRequest(req))
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	if err := requireRole(actor, staffRoles...); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func eventFromRequest(req dto.EventRequest) *models.Event {
	return &models.Event{ID: req.ID, Title: req.Title, Description: req.Description, StartTime: req.StartTime, EndTime: req.EndTime, ClassID: req.ClassID}
}

type announcementRepository interface {
	FindByID(ctx context.Context, id int) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id int) error
}

// AnnouncementService manages announcements. All mutations are admin only.
type AnnouncementService struct {
	repo      announcementRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewAnnouncementService constructs an AnnouncementService.
func NewAnnouncementService(repo announcementRepository, validate *validation.Validator, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, validator: orDefaultValidator(validate), logger: logger}
}

// Get returns an announcement.
func (s *AnnouncementService) Get(ctx context.Context, id int) (*models.Announcement, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores an announcement.
func (s *AnnouncementService) Create(ctx context.Context, actor *models.Actor, req dto.AnnouncementRequest) (int, error) {
	if err := allowCreate(actor, models.RoleAdmin); err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, err
	}
	announcement := announcementFromRequest(req)
	if err := s.repo.Create(ctx, announcement); err != nil {
		return 0, err
	}
	return announcement.ID, nil
}

// Update changes an announcement.
func (s *AnnouncementService) Update(ctx context.Context, actor *models.Actor, req dto.AnnouncementRequest) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	return s.repo.Update(ctx, announcementFromRequest(req))
}

// Delete removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func announcementFromRequest(req dto.AnnouncementRequest) *models.Announcement {
	return &models.Announcement{ID: req.ID, Title: req.Title, Description: req.Description, Date: req.Date, ClassID: req.ClassID}
}
