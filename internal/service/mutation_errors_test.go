package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/repository"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
	"github.com/noah-isme/school-dashboard-api/pkg/identity"
)

func errNoRows() error {
	return fmt.Errorf("find: %w", sql.ErrNoRows)
}

func TestNormalizeProviderErrors(t *testing.T) {
	cases := []struct {
		name    string
		op      models.Operation
		err     error
		message string
		status  int
	}{
		{"pwned", models.OperationCreate, identity.NewError(identity.CodePasswordPwned, ""), "This password has been compromised in a data breach. Please choose a stronger password.", http.StatusUnprocessableEntity},
		{"duplicate", models.OperationCreate, identity.NewError(identity.CodeIdentifierExists, ""), "A user with this username or email already exists.", http.StatusConflict},
		{"too short", models.OperationUpdate, identity.NewError(identity.CodePasswordTooShort, ""), "Password is too short. Please use at least 8 characters.", http.StatusUnprocessableEntity},
		{"not found", models.OperationDelete, identity.NewError(identity.CodeIdentifierNotFound, ""), "User with this identifier not found.", http.StatusNotFound},
		{"unknown on create", models.OperationCreate, identity.NewError("form_param_format_invalid", ""), msgProviderCreate, http.StatusUnprocessableEntity},
		{"unknown on update", models.OperationUpdate, identity.NewError("form_param_format_invalid", ""), msgProviderUpdate, http.StatusUnprocessableEntity},
		{"offline", models.OperationCreate, identity.Transient(context.DeadlineExceeded), msgProviderOffline, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeError(models.EntityTeacher, tc.op, tc.err)
			assert.Equal(t, tc.message, got.Message)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, appErrors.CodeProvider, got.Code)
		})
	}
}

func TestNormalizeStoreErrors(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "students_username_key"}
	got := normalizeError(models.EntityStudent, models.OperationCreate, unique)
	assert.Equal(t, "A student with this username already exists. Please use a different username.", got.Message)
	assert.Equal(t, http.StatusConflict, got.Status)

	missingRef := &pq.Error{Code: "23503", Constraint: "lessons_subject_id_fkey"}
	got = normalizeError(models.EntityLesson, models.OperationCreate, missingRef)
	assert.Equal(t, "The selected subject does not exist. Please select a valid subject.", got.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, got.Status)

	referenced := &pq.Error{Code: "23503", Constraint: "results_exam_id_fkey"}
	got = normalizeError(models.EntityExam, models.OperationDelete, referenced)
	assert.Equal(t, "Cannot delete exam because other records still reference it.", got.Message)

	got = normalizeError(models.EntityClass, models.OperationUpdate, &pq.Error{Code: "22001"})
	assert.Equal(t, appErrors.CodeValidation, got.Code)

	got = normalizeError(models.EntityClass, models.OperationUpdate, &pq.Error{Code: "53300"})
	assert.Equal(t, msgUnexpected, got.Message)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
}

func TestNormalizeDomainErrors(t *testing.T) {
	got := normalizeError(models.EntitySubject, models.OperationUpdate, errNoRows())
	assert.Equal(t, "Subject not found", got.Message)

	got = normalizeError(models.EntityStudent, models.OperationCreate, fmt.Errorf("insert: %w", repository.ErrClassFull))
	assert.Equal(t, appErrors.CodeCapacity, got.Code)

	got = normalizeError(models.EntityStudent, models.OperationCreate, repository.ErrClassNotFound)
	assert.Equal(t, msgClassMissing, got.Message)

	got = normalizeError(models.EntityClass, models.OperationUpdate, repository.ErrCapacityBelowEnrollment)
	assert.Equal(t, msgCapacityTooLow, got.Message)
	assert.Equal(t, http.StatusConflict, got.Status)

	got = normalizeError(models.EntityClass, models.OperationUpdate, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, got.Status)

	got = normalizeError(models.EntityClass, models.OperationUpdate, fmt.Errorf("update class: %w", context.DeadlineExceeded))
	assert.Equal(t, appErrors.CodePersistence, got.Code)
	assert.Equal(t, http.StatusGatewayTimeout, got.Status)
	assert.Equal(t, msgTimeout, got.Message)

	violations := validation.Violations{{Field: "name", Message: "name is a required field"}}
	got = normalizeError(models.EntityClass, models.OperationCreate, violations)
	assert.Equal(t, "name is a required field", got.Message)
	assert.Len(t, got.Fields, 1)

	integrity := appErrors.Clone(appErrors.ErrIntegrity, "blocked")
	assert.Same(t, integrity, normalizeError(models.EntityTeacher, models.OperationDelete, integrity))
}

func TestConstraintFieldFallsBack(t *testing.T) {
	assert.Equal(t, "email", constraintField("teachers_email_key", models.EntityTeacher))
	assert.Equal(t, "value", constraintField("", models.EntityTeacher))
}
