package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/pkg/identity"
)

const defaultCompensationTimeout = 10 * time.Second

// cleanupScheduler retries identity removals that failed inline.
type cleanupScheduler interface {
	Schedule(kind models.EntityKind, id string) error
}

// PersonLifecycle pairs a teacher, student or parent row with its identity provider record. The
// provider record is created first because its id becomes the row's primary key, so every store
// failure after provisioning has to undo the provider side.
type PersonLifecycle struct {
	provider            identity.Provider
	cleanup             cleanupScheduler
	metrics             *MetricsService
	logger              *zap.Logger
	compensationTimeout time.Duration
}

// NewPersonLifecycle constructs a PersonLifecycle. cleanup may be nil when the retry queue is off.
func NewPersonLifecycle(provider identity.Provider, cleanup cleanupScheduler, metrics *MetricsService, compensationTimeout time.Duration, logger *zap.Logger) *PersonLifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if compensationTimeout <= 0 {
		compensationTimeout = defaultCompensationTimeout
	}
	return &PersonLifecycle{provider: provider, cleanup: cleanup, metrics: metrics, logger: logger, compensationTimeout: compensationTimeout}
}

// Create provisions an identity and persists the row under its id. When persisting fails the
// identity is deprovisioned again and the persistence error is returned.
func (l *PersonLifecycle) Create(ctx context.Context, kind models.EntityKind, profile identity.Profile, persist func(ctx context.Context, id string) error) (string, error) {
	id, err := l.provider.Provision(ctx, profile)
	if err != nil {
		if identity.KindOf(err) == identity.KindTransient {
			l.removeOrphan(ctx, kind, profile.Username)
		}
		return "", err
	}

	if err := persist(ctx, id); err != nil {
		l.logger.Warn("persist after provisioning failed, deprovisioning",
			zap.String("entity", string(kind)), zap.String("id", id), zap.Error(err))
		l.compensate(ctx, kind, id, "deprovision")
		return "", err
	}
	return id, nil
}

// Update pushes the new profile to the provider and then persists the row. When persisting fails
// the previous profile is restored; passwords are never restored.
func (l *PersonLifecycle) Update(ctx context.Context, kind models.EntityKind, id string, next, previous identity.Profile, persist func(ctx context.Context) error) error {
	if err := l.provider.Update(ctx, id, next); err != nil {
		return err
	}

	if err := persist(ctx); err != nil {
		previous.Password = ""
		cctx, cancel := l.detached(ctx)
		defer cancel()
		restoreErr := l.provider.Update(cctx, id, previous)
		l.metrics.RecordCompensation(string(kind), "restore", restoreErr == nil)
		if restoreErr != nil {
			l.logger.Error("compensation failure: identity profile not restored",
				zap.String("entity", string(kind)), zap.String("id", id), zap.Error(restoreErr), zap.NamedError("cause", err))
		}
		return err
	}
	return nil
}

// Delete removes the row through persist and then deprovisions the identity. A deprovision failure
// does not fail the delete: it is logged and handed to the cleanup queue.
func (l *PersonLifecycle) Delete(ctx context.Context, kind models.EntityKind, id string, persist func(ctx context.Context) error) error {
	if err := persist(ctx); err != nil {
		return err
	}
	l.compensate(ctx, kind, id, "deprovision")
	return nil
}

// compensate deprovisions id on a context that survives request cancellation.
func (l *PersonLifecycle) compensate(ctx context.Context, kind models.EntityKind, id, action string) {
	cctx, cancel := l.detached(ctx)
	defer cancel()

	err := l.provider.Deprovision(cctx, id)
	if err != nil && identity.IsNotFound(err) {
		err = nil
	}
	l.metrics.RecordCompensation(string(kind), action, err == nil)
	if err == nil {
		return
	}

	l.logger.Error("compensation failure: identity not deprovisioned",
		zap.String("entity", string(kind)), zap.String("id", id), zap.Error(err))
	if l.cleanup == nil {
		return
	}
	if qerr := l.cleanup.Schedule(kind, id); qerr != nil {
		l.logger.Error("identity cleanup not scheduled", zap.String("id", id), zap.Error(qerr))
	}
}

// removeOrphan handles a provisioning call that timed out: the provider may have created the
// record anyway, so look it up by username and remove it.
func (l *PersonLifecycle) removeOrphan(ctx context.Context, kind models.EntityKind, username string) {
	cctx, cancel := l.detached(ctx)
	defer cancel()

	id, err := l.provider.FindByUsername(cctx, username)
	if err != nil {
		if !identity.IsNotFound(err) {
			l.logger.Warn("orphan identity lookup failed", zap.String("username", username), zap.Error(err))
		}
		return
	}
	l.logger.Warn("removing identity created by a timed out provisioning call",
		zap.String("entity", string(kind)), zap.String("id", id))
	l.compensate(cctx, kind, id, "orphan")
}

func (l *PersonLifecycle) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), l.compensationTimeout)
}
