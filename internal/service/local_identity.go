package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/pkg/identity"
)

const minPasswordLength = 8

// breachedPasswords is a short list of passwords that appear in every public breach corpus.
var breachedPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "11111111": {},
	"abc12345": {}, "admin123": {}, "letmein1": {}, "welcome1": {}, "sunshine": {},
}

type identityUserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// LocalIdentityService is an identity provider backed by the users table. It answers with the
// same error codes as the hosted provider so the mutation layer cannot tell them apart.
type LocalIdentityService struct {
	users  identityUserStore
	logger *zap.Logger
}

// NewLocalIdentityService constructs a LocalIdentityService.
func NewLocalIdentityService(users identityUserStore, logger *zap.Logger) *LocalIdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalIdentityService{users: users, logger: logger}
}

// Provision creates a user record and returns its id.
func (s *LocalIdentityService) Provision(ctx context.Context, profile identity.Profile) (string, error) {
	if err := checkPassword(profile.Password); err != nil {
		return "", err
	}
	if _, err := s.users.FindByUsername(ctx, profile.Username); err == nil {
		return "", identity.NewError(identity.CodeIdentifierExists, "username is taken")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", identity.Transient(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(profile.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", identity.NewError(identity.CodeUnexpectedProviderErr, err.Error())
	}
	user := &models.User{
		Username:     profile.Username,
		PasswordHash: string(hash),
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Email:        optionalString(profile.Email),
		Role:         models.UserRole(profile.Role),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", storeFailure(err)
	}
	return user.ID, nil
}

// Update overwrites the profile of id. An empty password keeps the current one.
func (s *LocalIdentityService) Update(ctx context.Context, id string, profile identity.Profile) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.NewError(identity.CodeResourceNotFound, "user not found")
		}
		return identity.Transient(err)
	}

	if profile.Username != user.Username {
		if other, err := s.users.FindByUsername(ctx, profile.Username); err == nil && other.ID != id {
			return identity.NewError(identity.CodeIdentifierExists, "username is taken")
		}
	}
	if profile.Password != "" {
		if err := checkPassword(profile.Password); err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(profile.Password), bcrypt.DefaultCost)
		if err != nil {
			return identity.NewError(identity.CodeUnexpectedProviderErr, err.Error())
		}
		user.PasswordHash = string(hash)
	}

	user.Username = profile.Username
	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	user.Email = optionalString(profile.Email)
	if profile.Role != "" {
		user.Role = models.UserRole(profile.Role)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return storeFailure(err)
	}
	return nil
}

// Deprovision deletes the user record.
func (s *LocalIdentityService) Deprovision(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return storeFailure(err)
	}
	return nil
}

// FindByUsername returns the id of the user owning username.
func (s *LocalIdentityService) FindByUsername(ctx context.Context, username string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", storeFailure(err)
	}
	return user.ID, nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return identity.NewError(identity.CodePasswordTooShort, "password must be at least 8 characters")
	}
	if _, ok := breachedPasswords[strings.ToLower(password)]; ok {
		return identity.NewError(identity.CodePasswordPwned, "password found in a breach corpus")
	}
	return nil
}

func storeFailure(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return identity.NewError(identity.CodeResourceNotFound, "user not found")
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return identity.NewError(identity.CodeIdentifierExists, pqErr.Message)
	}
	return identity.Transient(err)
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
