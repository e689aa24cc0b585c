package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/pkg/identity"
)

var errStore = errors.New("store unavailable")

func TestCreateDeprovisionsWhenPersistFails(t *testing.T) {
	provider := &fakeProvider{}
	lifecycle := NewPersonLifecycle(provider, nil, nil, 0, nil)

	id, err := lifecycle.Create(context.Background(), models.EntityStudent, identity.Profile{Username: "s1"}, func(ctx context.Context, id string) error {
		assert.Equal(t, "user_1", id)
		return errStore
	})
	assert.ErrorIs(t, err, errStore)
	assert.Empty(t, id)
	assert.Equal(t, []string{"user_1"}, provider.deprovisioned)
}

func TestCreateCompensatesAfterRequestCancellation(t *testing.T) {
	provider := &fakeProvider{}
	lifecycle := NewPersonLifecycle(provider, nil, nil, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := lifecycle.Create(ctx, models.EntityTeacher, identity.Profile{Username: "t1"}, func(ctx context.Context, id string) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, provider.ctxErrs, 1)
	assert.NoError(t, provider.ctxErrs[0], "compensation must run on a live context")
}

func TestCreateSchedulesCleanupWhenCompensationFails(t *testing.T) {
	provider := &fakeProvider{deprovisionErr: identity.Transient(errors.New("connection reset"))}
	cleanup := &fakeCleanup{}
	lifecycle := NewPersonLifecycle(provider, cleanup, nil, 0, nil)

	_, err := lifecycle.Create(context.Background(), models.EntityParent, identity.Profile{Username: "p1"}, func(context.Context, string) error {
		return errStore
	})
	assert.ErrorIs(t, err, errStore, "the persistence error is reported, not the compensation failure")
	assert.Equal(t, []string{"user_1"}, cleanup.scheduled)
}

func TestCreateRemovesOrphanAfterProvisionTimeout(t *testing.T) {
	provider := &fakeProvider{provisionErr: identity.Transient(context.DeadlineExceeded), findID: "user_orphan"}
	lifecycle := NewPersonLifecycle(provider, nil, nil, 0, nil)

	persisted := false
	_, err := lifecycle.Create(context.Background(), models.EntityTeacher, identity.Profile{Username: "slowpoke"}, func(context.Context, string) error {
		persisted = true
		return nil
	})
	assert.Equal(t, identity.KindTransient, identity.KindOf(err))
	assert.False(t, persisted)
	assert.Equal(t, []string{"slowpoke"}, provider.lookups)
	assert.Equal(t, []string{"user_orphan"}, provider.deprovisioned)
}

func TestCreateSkipsOrphanLookupOnRejection(t *testing.T) {
	provider := &fakeProvider{provisionErr: identity.NewError(identity.CodeIdentifierExists, "taken")}
	lifecycle := NewPersonLifecycle(provider, nil, nil, 0, nil)

	_, err := lifecycle.Create(context.Background(), models.EntityTeacher, identity.Profile{Username: "dup"}, func(context.Context, string) error {
		return nil
	})
	assert.Equal(t, identity.KindDuplicate, identity.KindOf(err))
	assert.Empty(t, provider.lookups)
	assert.Empty(t, provider.deprovisioned)
}

func TestUpdateRestoresPreviousProfile(t *testing.T) {
	provider := &fakeProvider{}
	lifecycle := NewPersonLifecycle(provider, nil, nil, 0, nil)

	next := identity.Profile{Username: "new", Password: "s3cret-pass", FirstName: "New"}
	previous := identity.Profile{Username: "old", Password: "ignored", FirstName: "Old"}
	err := lifecycle.Update(context.Background(), models.EntityTeacher, "user_1", next, previous, func(context.Context) error {
		return errStore
	})
	assert.ErrorIs(t, err, errStore)
	require.Len(t, provider.updates, 2)
	assert.Equal(t, "new", provider.updates[0].Username)
	assert.Equal(t, "old", provider.updates[1].Username)
	assert.Empty(t, provider.updates[1].Password)
}

func TestUpdateStopsWhenProviderRejects(t *testing.T) {
	provider := &fakeProvider{updateErr: identity.NewError(identity.CodePasswordPwned, "pwned")}
	lifecycle := NewPersonLifecycle(provider, nil, nil, 0, nil)

	called := false
	err := lifecycle.Update(context.Background(), models.EntityParent, "user_1", identity.Profile{}, identity.Profile{}, func(context.Context) error {
		called = true
		return nil
	})
	assert.Equal(t, identity.KindWeakCredential, identity.KindOf(err))
	assert.False(t, called)
}

func TestDeleteSucceedsWhenDeprovisionFails(t *testing.T) {
	provider := &fakeProvider{deprovisionErr: identity.Transient(errors.New("503"))}
	cleanup := &fakeCleanup{}
	metrics := NewMetricsService()
	lifecycle := NewPersonLifecycle(provider, cleanup, metrics, 0, nil)

	err := lifecycle.Delete(context.Background(), models.EntityStudent, "user_9", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"user_9"}, cleanup.scheduled)
}

func TestDeleteTreatsMissingIdentityAsDone(t *testing.T) {
	provider := &fakeProvider{deprovisionErr: identity.NewError(identity.CodeResourceNotFound, "gone")}
	cleanup := &fakeCleanup{}
	lifecycle := NewPersonLifecycle(provider, cleanup, nil, 0, nil)

	require.NoError(t, lifecycle.Delete(context.Background(), models.EntityStudent, "user_9", func(context.Context) error { return nil }))
	assert.Empty(t, cleanup.scheduled)
}

func TestDeleteKeepsIdentityWhenStoreRefuses(t *testing.T) {
	provider := &fakeProvider{}
	lifecycle := NewPersonLifecycle(provider, nil, nil, 0, nil)

	err := lifecycle.Delete(context.Background(), models.EntityTeacher, "user_1", func(context.Context) error { return errStore })
	assert.ErrorIs(t, err, errStore)
	assert.Empty(t, provider.deprovisioned)
}
