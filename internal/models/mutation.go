package models

import (
	"fmt"
	"strings"
)

// EntityKind enumerates every record type the mutation layer can create, update or delete.
type EntityKind string

const (
	EntityTeacher      EntityKind = "teacher"
	EntityStudent      EntityKind = "student"
	EntityParent       EntityKind = "parent"
	EntityClass        EntityKind = "class"
	EntitySubject      EntityKind = "subject"
	EntityLesson       EntityKind = "lesson"
	EntityExam         EntityKind = "exam"
	EntityAssignment   EntityKind = "assignment"
	EntityResult       EntityKind = "result"
	EntityEvent        EntityKind = "event"
	EntityAnnouncement EntityKind = "announcement"
)

// EntityKinds lists the kinds in route registration order.
var EntityKinds = []EntityKind{
	EntityTeacher, EntityStudent, EntityParent, EntityClass, EntitySubject, EntityLesson,
	EntityExam, EntityAssignment, EntityResult, EntityEvent, EntityAnnouncement,
}

// ParseEntityKind resolves a route segment such as "teachers" or "teacher".
func ParseEntityKind(raw string) (EntityKind, bool) {
	for _, k := range EntityKinds {
		if raw == string(k) || raw == k.Plural() {
			return k, true
		}
	}
	return "", false
}

// Plural returns the collection name used in routes and cache keys.
func (k EntityKind) Plural() string {
	if k == EntityClass {
		return "classes"
	}
	return string(k) + "s"
}

// Label is the capitalised name used in user-facing messages.
func (k EntityKind) Label() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// IsPerson reports whether records of this kind are paired with an identity provider record.
func (k EntityKind) IsPerson() bool {
	return k == EntityTeacher || k == EntityStudent || k == EntityParent
}

// Operation is one of the three mutating verbs.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// MutationResult is the caller-facing outcome of every mutation. Message is only set on failure,
// except for the few operations that report a confirmation text.
type MutationResult struct {
	Success bool   `json:"success"`
	Error   bool   `json:"error"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

// Succeeded builds a success result for the given record id.
func Succeeded(id string) MutationResult {
	return MutationResult{Success: true, ID: id}
}

// Failed builds a failure result carrying a display message.
func Failed(message string) MutationResult {
	return MutationResult{Error: true, Message: message}
}

// Relation names a dependent collection of a record.
type Relation string

const (
	RelationClasses     Relation = "classes"
	RelationLessons     Relation = "lessons"
	RelationSubjects    Relation = "subjects"
	RelationResults     Relation = "results"
	RelationAttendances Relation = "attendances"
	RelationStudents    Relation = "students"
)

// Dependents holds the number of dependent records per relation, counted under the delete
// transaction's row lock.
type Dependents map[Relation]int

// DeletePlan is what the integrity guard allows a delete to do before removing the root record.
type DeletePlan struct {
	Detach  []Relation
	Cascade []Relation
}

// DeleteGuard inspects dependents and either returns a plan or aborts the delete.
type DeleteGuard func(Dependents) (DeletePlan, error)

// String renders a compact description for logs.
func (p DeletePlan) String() string {
	return fmt.Sprintf("detach=%v cascade=%v", p.Detach, p.Cascade)
}
