package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/pkg/identity"
)

type fakeProvider struct {
	mu sync.Mutex

	provisionErr   error
	updateErr      error
	updateErrs     []error
	deprovisionErr error
	findID         string
	findErr        error

	nextID        int
	provisioned   []identity.Profile
	updates       []identity.Profile
	deprovisioned []string
	lookups       []string
	ctxErrs       []error
}

func (p *fakeProvider) Provision(ctx context.Context, profile identity.Profile) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.provisioned = append(p.provisioned, profile)
	if p.provisionErr != nil {
		return "", p.provisionErr
	}
	p.nextID++
	return fmt.Sprintf("user_%d", p.nextID), nil
}

func (p *fakeProvider) Update(ctx context.Context, id string, profile identity.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, profile)
	if len(p.updateErrs) > 0 {
		err := p.updateErrs[0]
		p.updateErrs = p.updateErrs[1:]
		return err
	}
	return p.updateErr
}

func (p *fakeProvider) Deprovision(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deprovisioned = append(p.deprovisioned, id)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	return p.deprovisionErr
}

func (p *fakeProvider) FindByUsername(ctx context.Context, username string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookups = append(p.lookups, username)
	if p.findErr != nil {
		return "", p.findErr
	}
	if p.findID == "" {
		return "", identity.NewError(identity.CodeIdentifierNotFound, "no user")
	}
	return p.findID, nil
}

type fakeCleanup struct {
	scheduled []string
	err       error
}

func (c *fakeCleanup) Schedule(kind models.EntityKind, id string) error {
	c.scheduled = append(c.scheduled, id)
	return c.err
}

// guardedStore mimics the repository side of a guarded delete: it hands the configured dependents
// to the guard and only records a write when the guard allows it.
type guardedStore struct {
	deps    models.Dependents
	plans   []models.DeletePlan
	deleted []string
}

func (g *guardedStore) run(id string, guard models.DeleteGuard) error {
	plan, err := guard(g.deps)
	if err != nil {
		return err
	}
	g.plans = append(g.plans, plan)
	g.deleted = append(g.deleted, id)
	return nil
}

type fakeTeacherRepo struct {
	guardedStore
	items     map[string]*models.Teacher
	createErr error
	updateErr error
	created   []*models.Teacher
	updated   []*models.Teacher
}

func (r *fakeTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := r.items[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, teacher)
	return nil
}

func (r *fakeTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated = append(r.updated, teacher)
	return nil
}

func (r *fakeTeacherRepo) Delete(ctx context.Context, id string, guard models.DeleteGuard) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	return r.run(id, guard)
}

type fakeStudentRepo struct {
	guardedStore
	items     map[string]*models.Student
	createErr error
	created   []*models.Student
}

func (r *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := r.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, student)
	if r.items == nil {
		r.items = make(map[string]*models.Student)
	}
	r.items[student.ID] = student
	return nil
}

func (r *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	r.items[student.ID] = student
	return nil
}

func (r *fakeStudentRepo) Delete(ctx context.Context, id string, guard models.DeleteGuard) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	return r.run(id, guard)
}

// fakeClasses answers enrollment from the students stored in a fakeStudentRepo.
type fakeClasses struct {
	capacity map[int]int
	grades   map[int]bool
	students *fakeStudentRepo
}

func (c *fakeClasses) Enrollment(ctx context.Context, classID int) (*models.Enrollment, error) {
	capacity, ok := c.capacity[classID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	enrolled := 0
	if c.students != nil {
		for _, s := range c.students.items {
			if s.ClassID == classID {
				enrolled++
			}
		}
	}
	return &models.Enrollment{Capacity: capacity, Enrolled: enrolled}, nil
}

func (c *fakeClasses) GradeExists(ctx context.Context, gradeID int) (bool, error) {
	return c.grades[gradeID], nil
}

type fakeParentRepo struct {
	guardedStore
	items   map[string]*models.Parent
	created []*models.Parent
}

func (r *fakeParentRepo) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	if p, ok := r.items[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeParentRepo) Create(ctx context.Context, parent *models.Parent) error {
	r.created = append(r.created, parent)
	return nil
}

func (r *fakeParentRepo) Update(ctx context.Context, parent *models.Parent) error {
	r.items[parent.ID] = parent
	return nil
}

func (r *fakeParentRepo) Delete(ctx context.Context, id string, guard models.DeleteGuard) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	return r.run(id, guard)
}

type fakeUserStore struct {
	users   map[string]*models.User
	nextID  int
	audits  []*models.AuditLog
	failing error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.failing != nil {
		return nil, s.failing
	}
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.nextID++
	user.ID = fmt.Sprintf("user_%d", s.nextID)
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) Update(ctx context.Context, user *models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.audits = append(s.audits, log)
	return nil
}

var (
	adminActor   = &models.Actor{ID: "admin_1", Role: models.RoleAdmin}
	teacherActor = &models.Actor{ID: "teacher_1", Role: models.RoleTeacher}
	studentActor = &models.Actor{ID: "student_1", Role: models.RoleStudent}
)
