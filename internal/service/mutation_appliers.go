package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/noah-isme/school-dashboard-api/internal/dto"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
)

// EntityMutator performs the mutations of one entity kind on raw JSON payloads.
type EntityMutator interface {
	Create(ctx context.Context, actor *models.Actor, payload []byte) (string, error)
	Update(ctx context.Context, actor *models.Actor, id string, payload []byte) error
	Delete(ctx context.Context, actor *models.Actor, id string) error
	Get(ctx context.Context, id string) (interface{}, error)
}

// mutatorFuncs decodes payloads into the request type T and forwards them to a typed service.
type mutatorFuncs[T any, R any] struct {
	create func(context.Context, *models.Actor, T) (string, error)
	update func(context.Context, *models.Actor, string, T) error
	remove func(context.Context, *models.Actor, string) error
	get    func(context.Context, string) (R, error)
}

func (m mutatorFuncs[T, R]) Create(ctx context.Context, actor *models.Actor, payload []byte) (string, error) {
	var req T
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	return m.create(ctx, actor, req)
}

func (m mutatorFuncs[T, R]) Update(ctx context.Context, actor *models.Actor, id string, payload []byte) error {
	var req T
	if err := decodePayload(payload, &req); err != nil {
		return err
	}
	return m.update(ctx, actor, id, req)
}

func (m mutatorFuncs[T, R]) Delete(ctx context.Context, actor *models.Actor, id string) error {
	return m.remove(ctx, actor, id)
}

func (m mutatorFuncs[T, R]) Get(ctx context.Context, id string) (interface{}, error) {
	record, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func decodePayload(payload []byte, dest interface{}) error {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return appErrors.Validation(msgInvalidPayload, nil, nil)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return appErrors.Validation(msgInvalidPayload, nil, err)
	}
	return nil
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, appErrors.Validation(msgInvalidID, []appErrors.FieldViolation{{Field: "id", Message: msgInvalidID}}, err)
	}
	return id, nil
}

// Adapters for services keyed by integer ids.

func intCreate[T any](create func(context.Context, *models.Actor, T) (int, error)) func(context.Context, *models.Actor, T) (string, error) {
	return func(ctx context.Context, actor *models.Actor, req T) (string, error) {
		id, err := create(ctx, actor, req)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(id), nil
	}
}

func intUpdate[T any](setID func(*T, int), update func(context.Context, *models.Actor, T) error) func(context.Context, *models.Actor, string, T) error {
	return func(ctx context.Context, actor *models.Actor, raw string, req T) error {
		id, err := parseID(raw)
		if err != nil {
			return err
		}
		setID(&req, id)
		return update(ctx, actor, req)
	}
}

func intDelete(remove func(context.Context, *models.Actor, int) error) func(context.Context, *models.Actor, string) error {
	return func(ctx context.Context, actor *models.Actor, raw string) error {
		id, err := parseID(raw)
		if err != nil {
			return err
		}
		return remove(ctx, actor, id)
	}
}

func intGet[R any](get func(context.Context, int) (R, error)) func(context.Context, string) (R, error) {
	return func(ctx context.Context, raw string) (R, error) {
		id, err := parseID(raw)
		if err != nil {
			var zero R
			return zero, err
		}
		return get(ctx, id)
	}
}

// NewTeacherMutator adapts a TeacherService.
func NewTeacherMutator(s *TeacherService) EntityMutator {
	return mutatorFuncs[dto.TeacherRequest, *models.Teacher]{
		create: s.Create,
		update: func(ctx context.Context, actor *models.Actor, id string, req dto.TeacherRequest) error {
			req.ID = id
			return s.Update(ctx, actor, req)
		},
		remove: s.Delete,
		get:    s.Get,
	}
}

// NewStudentMutator adapts a StudentService.
func NewStudentMutator(s *StudentService) EntityMutator {
	return mutatorFuncs[dto.StudentRequest, *models.Student]{
		create: s.Create,
		update: func(ctx context.Context, actor *models.Actor, id string, req dto.StudentRequest) error {
			req.ID = id
			return s.Update(ctx, actor, req)
		},
		remove: s.Delete,
		get:    s.Get,
	}
}

// NewParentMutator adapts a ParentService.
func NewParentMutator(s *ParentService) EntityMutator {
	return mutatorFuncs[dto.ParentRequest, *models.Parent]{
		create: s.Create,
		update: func(ctx context.Context, actor *models.Actor, id string, req dto.ParentRequest) error {
			req.ID = id
			return s.Update(ctx, actor, req)
		},
		remove: s.Delete,
		get:    s.Get,
	}
}

// NewClassMutator adapts a ClassService.
func NewClassMutator(s *ClassService) EntityMutator {
	return mutatorFuncs[dto.ClassRequest, *models.Class]{
		create: intCreate(s.Create),
		update: intUpdate(func(r *dto.ClassRequest, id int) { r.ID = id }, s.Update),
		remove: intDelete(s.Delete),
		get:    intGet(s.Get),
	}
}

// NewSubjectMutator adapts a SubjectService.
func NewSubjectMutator(s *SubjectService) EntityMutator {
	return mutatorFuncs[dto.SubjectRequest, *models.Subject]{
		create: intCreate(s.Create),
		update: intUpdate(func(r *dto.SubjectRequest, id int) { r.ID = id }, s.Update),
		remove: intDelete(s.Delete),
		get:    intGet(s.Get),
	}
}

// NewLessonMutator adapts a LessonService.
func NewLessonMutator(s *LessonService) EntityMutator {
	return mutatorFuncs[dto.LessonRequest, *models.Lesson]{
		create: intCreate(s.Create),
		update: intUpdate(func(r *dto.LessonRequest, id int) { r.ID = id }, s.Update),
		remove: intDelete(s.Delete),
		get:    intGet(s.Get),
	}
}

// NewExamMutator adapts an ExamService.
func NewExamMutator(s *ExamService) EntityMutator {
	return mutatorFuncs[dto.ExamRequest, *models.Exam]{
		create: intCreate(s.Create),
		update: intUpdate(func(r *dto.ExamRequest, id int) { r.ID = id }, s.Update),
		remove: intDelete(s.Delete),
		get:    intGet(s.Get),
	}
}

// NewAssignmentMutator adapts an AssignmentService.
func NewAssignmentMutator(s *AssignmentService) EntityMutator {
	return mutatorFuncs[dto.AssignmentRequest, *models.Assignment]{
		create: intCreate(s.Create),
		update: intUpdate(func(r *dto.AssignmentRequest, id int) { r.ID = id }, s.Update),
		remove: intDelete(s.Delete),
		get:    intGet(s.Get),
	}
}

// NewResultMutator adapts a ResultService.
func NewResultMutator(s *ResultService) EntityMutator {
	return mutatorFuncs[dto.ResultRequest, *models.Result]{
		create: intCreate(s.Create),
		update: intUpdate(func(r *dto.ResultRequest, id int) { r.ID = id }, s.Update),
		remove: intDelete(s.Delete),
		get:    intGet(s.Get),
	}
}

// NewEventMutator adapts an EventService.
func NewEventMutator(s *EventService) EntityMutator {
	return mutatorFuncs[dto.EventRequest, *models.Event]{
		create: intCreate(s.Create),
		update: intUpdate(func(r *dto.EventRequest, id int) { r.ID = id }, s.Update),
		remove: intDelete(s.Delete),
		get:    intGet(s.Get),
	}
}

// NewAnnouncementMutator adapts an AnnouncementService.
func NewAnnouncementMutator(s *AnnouncementService) EntityMutator {
	return mutatorFuncs[dto.AnnouncementRequest, *models.Announcement]{
		create: intCreate(s.Create),
		update: intUpdate(func(r *dto.AnnouncementRequest, id int) { r.ID = id }, s.Update),
		remove: intDelete(s.Delete),
		get:    intGet(s.Get),
	}
}
