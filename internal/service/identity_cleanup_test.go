package service

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/pkg/identity"
	"github.com/noah-isme/school-dashboard-api/pkg/jobs"
)

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func scrapeMetrics(t *testing.T, m *MetricsService) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCleanupScheduleEnqueuesJob(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewIdentityCleanupService(&fakeProvider{}, metrics, nil)
	queue := &recordingQueue{}
	svc.SetQueue(queue)

	require.NoError(t, svc.Schedule(models.EntityTeacher, "user_5"))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeIdentityCleanup, queue.jobs[0].Type)
	assert.Equal(t, CleanupPayload{Entity: models.EntityTeacher, ID: "user_5"}, queue.jobs[0].Payload)
	assert.NotEmpty(t, queue.jobs[0].ID)
	assert.Contains(t, scrapeMetrics(t, metrics), `identity_cleanup_jobs_total{outcome="scheduled"} 1`)
}

func TestCleanupScheduleWithoutQueue(t *testing.T) {
	svc := NewIdentityCleanupService(&fakeProvider{}, nil, nil)
	assert.Error(t, svc.Schedule(models.EntityTeacher, "user_5"))
}

func TestCleanupHandleDeprovisions(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewIdentityCleanupService(provider, nil, nil)

	job := jobs.Job{Type: JobTypeIdentityCleanup, Payload: CleanupPayload{Entity: models.EntityStudent, ID: "user_2"}}
	require.NoError(t, svc.Handle(context.Background(), job))
	assert.Equal(t, []string{"user_2"}, provider.deprovisioned)
}

func TestCleanupHandleTreatsMissingAsDone(t *testing.T) {
	provider := &fakeProvider{deprovisionErr: identity.NewError(identity.CodeResourceNotFound, "gone")}
	svc := NewIdentityCleanupService(provider, nil, nil)

	job := jobs.Job{Payload: CleanupPayload{Entity: models.EntityStudent, ID: "user_2"}}
	assert.NoError(t, svc.Handle(context.Background(), job))
}

func TestCleanupHandleReturnsTransientFailure(t *testing.T) {
	provider := &fakeProvider{deprovisionErr: identity.Transient(errors.New("reset"))}
	svc := NewIdentityCleanupService(provider, nil, nil)

	job := jobs.Job{Payload: CleanupPayload{Entity: models.EntityStudent, ID: "user_2"}}
	assert.Error(t, svc.Handle(context.Background(), job))
	assert.Error(t, svc.Handle(context.Background(), jobs.Job{Payload: "bogus"}))
}

func TestLifecycleSchedulesThroughCleanupQueue(t *testing.T) {
	provider := &fakeProvider{deprovisionErr: identity.Transient(errors.New("reset"))}
	cleanup := NewIdentityCleanupService(provider, nil, nil)
	queue := &recordingQueue{}
	cleanup.SetQueue(queue)
	lifecycle := NewPersonLifecycle(provider, cleanup, nil, 0, nil)

	require.NoError(t, lifecycle.Delete(context.Background(), models.EntityParent, "user_8", func(context.Context) error { return nil }))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "user_8", queue.jobs[0].Payload.(CleanupPayload).ID)
}
