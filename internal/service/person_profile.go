package service

import (
	"strings"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
	"github.com/noah-isme/school-dashboard-api/pkg/identity"
)

// personFields is the part of a teacher, student or parent mirrored on the identity provider.
type personFields struct {
	username string
	password string
	name     string
	surname  string
	email    string
}

func (p personFields) profile(role models.UserRole) identity.Profile {
	return identity.Profile{
		Username:  p.username,
		Password:  p.password,
		FirstName: p.name,
		LastName:  p.surname,
		Email:     strings.TrimSpace(p.email),
		Role:      identity.Role(role),
	}
}

func recordProfile(username, name, surname string, email *string, role models.UserRole) identity.Profile {
	return personFields{username: username, name: name, surname: surname, email: derefString(email)}.profile(role)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func orDefaultValidator(v *validation.Validator) *validation.Validator {
	if v == nil {
		return validation.New()
	}
	return v
}
