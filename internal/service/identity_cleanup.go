package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/pkg/identity"
	"github.com/noah-isme/school-dashboard-api/pkg/jobs"
)

// JobTypeIdentityCleanup is the job type of deferred identity removals.
const JobTypeIdentityCleanup = "identity_cleanup"

// CleanupPayload identifies an identity record left behind by a partial failure.
type CleanupPayload struct {
	Entity models.EntityKind
	ID     string
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// IdentityCleanupService retries deprovisioning through the background queue.
type IdentityCleanupService struct {
	provider identity.Provider
	queue    jobEnqueuer
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewIdentityCleanupService constructs the cleanup service. Attach the queue with SetQueue once it
// has been built around Handle.
func NewIdentityCleanupService(provider identity.Provider, metrics *MetricsService, logger *zap.Logger) *IdentityCleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityCleanupService{provider: provider, metrics: metrics, logger: logger}
}

// SetQueue attaches the queue jobs are scheduled on.
func (s *IdentityCleanupService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Schedule enqueues a deprovision retry.
func (s *IdentityCleanupService) Schedule(kind models.EntityKind, id string) error {
	if s.queue == nil {
		return fmt.Errorf("identity cleanup queue not configured")
	}
	job := jobs.Job{
		ID:       uuid.NewString(),
		Type:     JobTypeIdentityCleanup,
		Payload:  CleanupPayload{Entity: kind, ID: id},
		Enqueued: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordCleanupJob("dropped")
		return err
	}
	s.metrics.RecordCleanupJob("scheduled")
	return nil
}

// Handle is the queue handler. A record that is already gone counts as cleaned up.
func (s *IdentityCleanupService) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(CleanupPayload)
	if !ok {
		return fmt.Errorf("identity cleanup: unexpected payload %T", job.Payload)
	}
	if err := s.provider.Deprovision(ctx, payload.ID); err != nil && !identity.IsNotFound(err) {
		s.metrics.RecordCleanupJob(outcomeFailure)
		return fmt.Errorf("deprovision %s %s: %w", payload.Entity, payload.ID, err)
	}
	s.metrics.RecordCleanupJob(outcomeSuccess)
	s.logger.Info("orphaned identity removed", zap.String("entity", string(payload.Entity)), zap.String("id", payload.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// Exhausted logs a cleanup job that ran out of retries. The identity has to be removed by hand.
func (s *IdentityCleanupService) Exhausted(job jobs.Job, err error) {
	s.metrics.RecordCleanupJob("exhausted")
	payload, _ := job.Payload.(CleanupPayload)
	s.logger.Error("identity cleanup exhausted", zap.String("entity", string(payload.Entity)), zap.String("id", payload.ID), zap.Error(err))
}
