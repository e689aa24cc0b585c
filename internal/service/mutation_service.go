package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
	"github.com/noah-isme/school-dashboard-api/pkg/logger"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// sensitiveFields never reach the audit trail.
var sensitiveFields = []string{"password"}

// MutationService dispatches create, update and delete requests to the mutator of each entity
// kind and turns every outcome into a MutationResult.
type MutationService struct {
	mutators map[models.EntityKind]EntityMutator
	audit    auditLogger
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	timeout  time.Duration
}

// MutationServiceOption configures the service.
type MutationServiceOption func(*MutationService)

// WithMutators registers mutators keyed by entity kind.
func WithMutators(mutators map[models.EntityKind]EntityMutator) MutationServiceOption {
	return func(s *MutationService) {
		for k, v := range mutators {
			s.Register(k, v)
		}
	}
}

// WithMutationCache sets the cache invalidated after successful mutations.
func WithMutationCache(cache *CacheService) MutationServiceOption {
	return func(s *MutationService) {
		s.cache = cache
	}
}

// WithMutationMetrics sets the metrics sink.
func WithMutationMetrics(metrics *MetricsService) MutationServiceOption {
	return func(s *MutationService) {
		s.metrics = metrics
	}
}

// WithMutationTimeout bounds each mutation, provider calls included.
func WithMutationTimeout(timeout time.Duration) MutationServiceOption {
	return func(s *MutationService) {
		s.timeout = timeout
	}
}

// NewMutationService constructs the service with defaults.
func NewMutationService(audit auditLogger, logger *zap.Logger, opts ...MutationServiceOption) *MutationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &MutationService{
		mutators: make(map[models.EntityKind]EntityMutator),
		audit:    audit,
		logger:   logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Register attaches the mutator for kind, replacing any previous one.
func (s *MutationService) Register(kind models.EntityKind, mutator EntityMutator) {
	if mutator == nil {
		return
	}
	s.mutators[kind] = mutator
}

// Kinds lists the registered entity kinds in route order.
func (s *MutationService) Kinds() []models.EntityKind {
	kinds := make([]models.EntityKind, 0, len(s.mutators))
	for _, k := range models.EntityKinds {
		if _, ok := s.mutators[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Create creates a record of kind from a JSON payload.
func (s *MutationService) Create(ctx context.Context, actor *models.Actor, kind models.EntityKind, payload []byte) (models.MutationResult, error) {
	return s.run(ctx, actor, kind, models.OperationCreate, "", payload, func(ctx context.Context, m EntityMutator) (string, error) {
		return m.Create(ctx, actor, payload)
	})
}

// Update updates the record of kind identified by id.
func (s *MutationService) Update(ctx context.Context, actor *models.Actor, kind models.EntityKind, id string, payload []byte) (models.MutationResult, error) {
	return s.run(ctx, actor, kind, models.OperationUpdate, id, payload, func(ctx context.Context, m EntityMutator) (string, error) {
		return id, m.Update(ctx, actor, id, payload)
	})
}

// Delete deletes the record of kind identified by id.
func (s *MutationService) Delete(ctx context.Context, actor *models.Actor, kind models.EntityKind, id string) (models.MutationResult, error) {
	return s.run(ctx, actor, kind, models.OperationDelete, id, nil, func(ctx context.Context, m EntityMutator) (string, error) {
		return id, m.Delete(ctx, actor, id)
	})
}

// Get returns the JSON of a single record, served from the cache when possible.
func (s *MutationService) Get(ctx context.Context, kind models.EntityKind, id string) (json.RawMessage, error) {
	mutator, ok := s.mutators[kind]
	if !ok {
		return nil, unknownEntity(kind)
	}

	key := DetailKey(kind, id)
	var cached json.RawMessage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	record, err := mutator.Get(ctx, id)
	if err != nil {
		return nil, normalizeError(kind, "", err)
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode record")
	}
	_ = s.cache.Set(ctx, key, json.RawMessage(raw), 0)
	return raw, nil
}

// run executes one mutation. Failures of any kind, panics included, come back as a failed result
// plus the typed error the HTTP status is derived from.
func (s *MutationService) run(ctx context.Context, actor *models.Actor, kind models.EntityKind, op models.Operation, id string, payload []byte, fn func(context.Context, EntityMutator) (string, error)) (result models.MutationResult, appErr error) {
	log := logger.FromContext(ctx, s.logger).With(zap.String("entity", string(kind)), zap.String("operation", string(op)))

	mutator, ok := s.mutators[kind]
	if !ok {
		err := unknownEntity(kind)
		s.metrics.RecordMutation(unknownEntityLabel, string(op), false, 0)
		log.Info("mutation rejected", zap.String("code", err.Code), zap.Int("status", err.Status))
		return models.Failed(err.Message), err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("mutation panicked", zap.Any("panic", r), zap.Stack("stack"))
			err := appErrors.Wrap(fmt.Errorf("panic: %v", r), appErrors.ErrInternal.Code, http.StatusInternalServerError, msgUnexpected)
			result, appErr = models.Failed(err.Message), err
			s.metrics.RecordMutation(string(kind), string(op), false, time.Since(start))
		}
	}()

	newID, err := fn(ctx, mutator)
	s.metrics.RecordMutation(string(kind), string(op), err == nil, time.Since(start))
	if err != nil {
		normalized := normalizeError(kind, op, err)
		fields := []zap.Field{zap.String("code", normalized.Code), zap.Int("status", normalized.Status), zap.Error(err)}
		if normalized.Status >= http.StatusInternalServerError {
			log.Error("mutation failed", fields...)
		} else {
			log.Info("mutation rejected", fields...)
		}
		return models.Failed(normalized.Message), normalized
	}

	s.recordAudit(ctx, log, actor, kind, op, newID, payload)
	if err := s.cache.InvalidateEntity(ctx, kind); err != nil {
		log.Warn("cache invalidation failed", zap.Error(err))
	}
	log.Info("mutation succeeded", zap.String("id", newID))
	return models.Succeeded(newID), nil
}

func (s *MutationService) recordAudit(ctx context.Context, log *zap.Logger, actor *models.Actor, kind models.EntityKind, op models.Operation, id string, payload []byte) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    auditAction(op),
		Resource:  string(kind),
		NewValues: redact(payload),
	}
	if actor != nil {
		entry.UserID = &actor.ID
	}
	if id != "" {
		entry.ResourceID = &id
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		log.Warn("failed to record mutation audit log", zap.Error(err))
	}
}

func auditAction(op models.Operation) string {
	switch op {
	case models.OperationCreate:
		return models.AuditActionCreate
	case models.OperationUpdate:
		return models.AuditActionUpdate
	default:
		return models.AuditActionDelete
	}
}

// redact drops credentials from a JSON object payload. Non-object payloads are not stored.
func redact(payload []byte) []byte {
	if len(payload) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil
	}
	for _, name := range sensitiveFields {
		delete(fields, name)
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return out
}

// unknownEntityLabel is the metrics label for kinds outside the registry, keeping arbitrary route
// segments out of the label set.
const unknownEntityLabel = "unknown"

func unknownEntity(kind models.EntityKind) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("Unknown entity type %q", string(kind)))
}
