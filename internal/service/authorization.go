package service

import (
	"github.com/noah-isme/school-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
)

const msgForbidden = "You are not allowed to perform this action."

// requireRole rejects callers without one of roles. Unauthenticated callers are rejected too.
func requireRole(actor *models.Actor, roles ...models.UserRole) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "You must be signed in to perform this action.")
	}
	if !actor.Is(roles...) {
		return appErrors.Clone(appErrors.ErrForbidden, msgForbidden)
	}
	return nil
}

// allowCreate is the create-time check. Creates trust the router's role gate when no actor is
// attached, so only a present actor with the wrong role is refused.
func allowCreate(actor *models.Actor, roles ...models.UserRole) error {
	if actor == nil {
		return nil
	}
	return requireRole(actor, roles...)
}

// staffRoles may manage lessons, exams, assignments, results and events.
var staffRoles = []models.UserRole{models.RoleAdmin, models.RoleTeacher}

// ownsLesson reports whether a teacher actor may act on a lesson taught by teacherID. Admins and
// anonymous creates are unrestricted.
func ownsLesson(actor *models.Actor, teacherID string) bool {
	if actor == nil || actor.Role != models.RoleTeacher {
		return true
	}
	return actor.ID == teacherID
}
