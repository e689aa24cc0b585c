package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-dashboard-api/internal/dto"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
)

// recordStore is an in-memory repository for the plain integer-keyed records.
type recordStore[T any] struct {
	id      func(*T) *int
	items   map[int]*T
	nextID  int
	updated []*T
	deleted []int
	err     error
}

func newRecordStore[T any](id func(*T) *int) *recordStore[T] {
	return &recordStore[T]{id: id, items: map[int]*T{}}
}

func (s *recordStore[T]) FindByID(ctx context.Context, id int) (*T, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return item, nil
}

func (s *recordStore[T]) Create(ctx context.Context, item *T) error {
	if s.err != nil {
		return s.err
	}
	s.nextID++
	*s.id(item) = s.nextID
	s.items[s.nextID] = item
	return nil
}

func (s *recordStore[T]) Update(ctx context.Context, item *T) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.items[*s.id(item)]; !ok {
		return sql.ErrNoRows
	}
	s.items[*s.id(item)] = item
	s.updated = append(s.updated, item)
	return nil
}

func (s *recordStore[T]) Delete(ctx context.Context, id int) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func TestClassServiceLifecycle(t *testing.T) {
	repo := newRecordStore(func(c *models.Class) *int { return &c.ID })
	svc := NewClassService(repo, validation.New(), nil)
	ctx := context.Background()

	id, err := svc.Create(ctx, adminActor, dto.ClassRequest{Name: " 4B ", Capacity: 30, GradeID: 4, SupervisorID: "user_7"})
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, "4B", repo.items[1].Name)
	require.NotNil(t, repo.items[1].SupervisorID)
	assert.Equal(t, "user_7", *repo.items[1].SupervisorID)

	require.NoError(t, svc.Update(ctx, adminActor, dto.ClassRequest{ID: 1, Name: "4B", Capacity: 28, GradeID: 4}))
	assert.Nil(t, repo.items[1].SupervisorID)
	assert.Equal(t, 28, repo.items[1].Capacity)

	require.NoError(t, svc.Delete(ctx, adminActor, 1))
	assert.Equal(t, []int{1}, repo.deleted)
}

func TestClassServiceAdminOnly(t *testing.T) {
	repo := newRecordStore(func(c *models.Class) *int { return &c.ID })
	svc := NewClassService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, teacherActor, dto.ClassRequest{Name: "4B", Capacity: 30, GradeID: 4})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.Delete(ctx, nil, 1)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Empty(t, repo.items)
}

func TestClassServiceRejectsZeroCapacity(t *testing.T) {
	repo := newRecordStore(func(c *models.Class) *int { return &c.ID })
	svc := NewClassService(repo, nil, nil)

	_, err := svc.Create(context.Background(), adminActor, dto.ClassRequest{Name: "4B", Capacity: 0, GradeID: 4})
	require.Error(t, err)
	assert.IsType(t, validation.Violations{}, err)
	assert.Empty(t, repo.items)
}

func TestSubjectServiceTeacherSets(t *testing.T) {
	repo := newRecordStore(func(s *models.Subject) *int { return &s.ID })
	svc := NewSubjectService(repo, nil, nil)
	ctx := context.Background()

	id, err := svc.Create(ctx, adminActor, dto.SubjectRequest{Name: "Biology", Teachers: []string{"user_1", "user_2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"user_1", "user_2"}, repo.items[id].TeacherIDs)

	require.NoError(t, svc.Update(ctx, adminActor, dto.SubjectRequest{ID: id, Name: "Biology II"}))
	require.Len(t, repo.updated, 1)
	assert.Nil(t, repo.updated[0].TeacherIDs, "absent teachers keep the stored set")
	assert.Equal(t, "Biology II", repo.updated[0].Name)

	_, err = svc.Create(ctx, studentActor, dto.SubjectRequest{Name: "Art"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestAssignmentServiceStaffMayMutate(t *testing.T) {
	repo := newRecordStore(func(a *models.Assignment) *int { return &a.ID })
	svc := NewAssignmentService(repo, nil, nil)
	ctx := context.Background()
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	id, err := svc.Create(ctx, teacherActor, dto.AssignmentRequest{Title: "Essay", StartDate: start, DueDate: start.AddDate(0, 0, 7), LessonID: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.items[id].LessonID)

	err = svc.Update(ctx, teacherActor, dto.AssignmentRequest{ID: id, Title: "Essay", StartDate: start, DueDate: start.AddDate(0, 0, -1), LessonID: 3})
	assert.IsType(t, validation.Violations{}, err)
	assert.Empty(t, repo.updated)

	assert.ErrorIs(t, svc.Delete(ctx, studentActor, id), appErrors.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, adminActor, id))
}

func TestResultServiceReferences(t *testing.T) {
	repo := newRecordStore(func(r *models.Result) *int { return &r.ID })
	svc := NewResultService(repo, nil, nil)
	ctx := context.Background()
	exam, assignment := 5, 6

	_, err := svc.Create(ctx, teacherActor, dto.ResultRequest{Score: 88, StudentID: "user_3", ExamID: &exam, AssignmentID: &assignment})
	require.Error(t, err)
	assert.Empty(t, repo.items)

	id, err := svc.Create(ctx, teacherActor, dto.ResultRequest{Score: 88, StudentID: "user_3", ExamID: &exam})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, adminActor, dto.ResultRequest{ID: id, Score: 91, StudentID: "user_3", AssignmentID: &assignment}))
	stored := repo.items[id]
	assert.Nil(t, stored.ExamID)
	require.NotNil(t, stored.AssignmentID)
	assert.Equal(t, 6, *stored.AssignmentID)
	assert.Equal(t, 91, stored.Score)
}

func TestEventServicePolicy(t *testing.T) {
	repo := newRecordStore(func(e *models.Event) *int { return &e.ID })
	svc := NewEventService(repo, nil, nil)
	ctx := context.Background()
	start := time.Date(2024, 10, 4, 9, 0, 0, 0, time.UTC)

	id, err := svc.Create(ctx, teacherActor, dto.EventRequest{Title: "Science fair", Description: "Hall", StartTime: start, EndTime: start.Add(3 * time.Hour)})
	require.NoError(t, err)
	assert.Nil(t, repo.items[id].ClassID)

	err = svc.Update(ctx, studentActor, dto.EventRequest{ID: id, Title: "x", Description: "y", StartTime: start, EndTime: start.Add(time.Hour)})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, repo.updated)

	assert.ErrorIs(t, svc.Delete(ctx, adminActor, 99), sql.ErrNoRows)
}

func TestAnnouncementServiceAdminOnly(t *testing.T) {
	repo := newRecordStore(func(a *models.Announcement) *int { return &a.ID })
	svc := NewAnnouncementService(repo, nil, nil)
	ctx := context.Background()
	classID := 2
	req := dto.AnnouncementRequest{Title: "Closed Friday", Description: "Staff training", Date: time.Date(2024, 11, 8, 0, 0, 0, 0, time.UTC), ClassID: &classID}

	_, err := svc.Create(ctx, teacherActor, req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	id, err := svc.Create(ctx, adminActor, req)
	require.NoError(t, err)
	require.NotNil(t, repo.items[id].ClassID)
	assert.Equal(t, 2, *repo.items[id].ClassID)

	repo.err = sql.ErrConnDone
	assert.ErrorIs(t, svc.Delete(ctx, adminActor, id), sql.ErrConnDone)
}
