// Package identity is the boundary to the identity provider that owns login-capable user records.
// The provider-assigned user id doubles as the primary key of the paired teacher, student or parent
// row, so callers provision first and persist second.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// Role is stored as public metadata on the provider record and drives every authorization check.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// Profile is the subset of a person record mirrored on the provider.
type Profile struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Role      Role
}

// Provider provisions and deprovisions identity records.
type Provider interface {
	Provision(ctx context.Context, profile Profile) (string, error)
	Update(ctx context.Context, id string, profile Profile) error
	Deprovision(ctx context.Context, id string) error
	// FindByUsername returns the id of the record owning username, or an ErrorKindNotFound error.
	FindByUsername(ctx context.Context, username string) (string, error)
}

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindDuplicate      ErrorKind = "duplicate"
	KindWeakCredential ErrorKind = "weak_credential"
	KindNotFound       ErrorKind = "not_found"
	KindTransient      ErrorKind = "transient"
	KindRejected       ErrorKind = "rejected"
)

// Provider error codes understood by Classify.
const (
	CodeIdentifierExists      = "form_identifier_exists"
	CodePasswordPwned         = "form_password_pwned"
	CodePasswordTooShort      = "form_password_length_too_short"
	CodePasswordValidation    = "form_password_validation_failed"
	CodeIdentifierNotFound    = "form_identifier_not_found"
	CodeResourceNotFound      = "resource_not_found"
	CodeProviderUnavailable   = "provider_unavailable"
	CodeUnexpectedProviderErr = "unexpected_provider_error"
)

// Error is a classified provider failure. Message carries the provider's own text and is never
// shown to end users directly.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("identity provider %s (%s)", e.Kind, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Classify maps a provider error code to its kind.
func Classify(code string) ErrorKind {
	switch code {
	case CodeIdentifierExists:
		return KindDuplicate
	case CodePasswordPwned, CodePasswordTooShort, CodePasswordValidation:
		return KindWeakCredential
	case CodeIdentifierNotFound, CodeResourceNotFound:
		return KindNotFound
	case CodeProviderUnavailable:
		return KindTransient
	default:
		return KindRejected
	}
}

// NewError builds a classified error from a provider code.
func NewError(code, message string) *Error {
	return &Error{Kind: Classify(code), Code: code, Message: message}
}

// Transient wraps a network or timeout failure.
func Transient(err error) *Error {
	return &Error{Kind: KindTransient, Code: CodeProviderUnavailable, Err: err}
}

// KindOf reports the kind of err, or "" when err is not a provider error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}
	return ""
}

// CodeOf reports the provider code carried by err.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err means the provider has no such record.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
