package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lib/pq"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/repository"
	"github.com/noah-isme/school-dashboard-api/internal/validation"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
	"github.com/noah-isme/school-dashboard-api/pkg/identity"
)

// Display messages shared by several entities.
const (
	msgUnexpected      = "An unexpected error occurred. Please try again."
	msgClassMissing    = "The selected class does not exist. Please select a valid class."
	msgGradeMissing    = "The selected grade does not exist. Please select a valid grade."
	msgLessonMissing   = "The selected lesson does not exist. Please select a valid lesson."
	msgCapacityTooLow  = "Capacity cannot be lower than the number of students already enrolled."
	msgTimeout         = "The request took too long to complete. Please try again."
	msgInvalidPayload  = "The submitted form could not be read. Please check the fields and try again."
	msgInvalidID       = "The record identifier is not valid."
	msgProviderCreate  = "Something went wrong while creating the user."
	msgProviderUpdate  = "Something went wrong while updating the user."
	msgProviderDelete  = "Something went wrong while deleting the user."
	msgProviderOffline = "The identity service is unavailable. Please try again later."
)

var providerMessages = map[string]string{
	identity.CodePasswordPwned:      "This password has been compromised in a data breach. Please choose a stronger password.",
	identity.CodeIdentifierExists:   "A user with this username or email already exists.",
	identity.CodePasswordTooShort:   "Password is too short. Please use at least 8 characters.",
	identity.CodeIdentifierNotFound: "User with this identifier not found.",
	identity.CodeResourceNotFound:   "User with this identifier not found.",
}

// referenceLabels maps foreign key columns to the entity a missing reference points at.
var referenceLabels = map[string]string{
	"class_id":      "class",
	"grade_id":      "grade",
	"parent_id":     "parent",
	"subject_id":    "subject",
	"teacher_id":    "teacher",
	"supervisor_id": "supervisor",
	"lesson_id":     "lesson",
	"student_id":    "student",
	"exam_id":       "exam",
	"assignment_id": "assignment",
}

// normalizeError turns any failure of a mutation into a typed error whose message is safe to show.
func normalizeError(kind models.EntityKind, op models.Operation, err error) *appErrors.Error {
	if err == nil {
		return nil
	}

	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var violations validation.Violations
	if errors.As(err, &violations) {
		return appErrors.Validation(violations.Summary(), []appErrors.FieldViolation(violations), err)
	}

	// Only errors raised by the provider client count as provider failures. A bare context
	// deadline comes from the store and is handled below.
	var providerErr *identity.Error
	if errors.As(err, &providerErr) {
		return providerError(op, providerErr.Kind, err)
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, http.StatusNotFound, notFoundMessage(kind))
	case errors.Is(err, repository.ErrClassFull):
		return appErrors.Wrap(err, appErrors.ErrCapacity.Code, appErrors.ErrCapacity.Status, appErrors.ErrCapacity.Message)
	case errors.Is(err, repository.ErrClassNotFound):
		return appErrors.Validation(msgClassMissing, []appErrors.FieldViolation{{Field: "classId", Message: msgClassMissing}}, err)
	case errors.Is(err, repository.ErrCapacityBelowEnrollment):
		return appErrors.Wrap(err, appErrors.CodePersistence, http.StatusConflict, msgCapacityTooLow)
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.CodePersistence, http.StatusGatewayTimeout, msgTimeout)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return storeError(kind, op, pqErr)
	}

	return appErrors.Wrap(err, appErrors.CodePersistence, http.StatusInternalServerError, msgUnexpected)
}

func providerError(op models.Operation, kind identity.ErrorKind, err error) *appErrors.Error {
	code := identity.CodeOf(err)
	message, ok := providerMessages[code]
	status := http.StatusUnprocessableEntity
	switch kind {
	case identity.KindDuplicate:
		status = http.StatusConflict
	case identity.KindNotFound:
		status = http.StatusNotFound
		if !ok {
			message, ok = providerMessages[identity.CodeIdentifierNotFound], true
		}
	case identity.KindTransient:
		status = http.StatusServiceUnavailable
		if !ok {
			message, ok = msgProviderOffline, true
		}
	}
	if !ok {
		switch op {
		case models.OperationUpdate:
			message = msgProviderUpdate
		case models.OperationDelete:
			message = msgProviderDelete
		default:
			message = msgProviderCreate
		}
	}
	return appErrors.Wrap(err, appErrors.CodeProvider, status, message)
}

// storeError classifies a Postgres error by SQLSTATE.
func storeError(kind models.EntityKind, op models.Operation, pqErr *pq.Error) *appErrors.Error {
	label := strings.ToLower(kind.Label())
	switch pqErr.Code {
	case "23505":
		field := constraintField(pqErr.Constraint, kind)
		message := fmt.Sprintf("A %s with this %s already exists. Please use a different %s.", label, field, field)
		return appErrors.Wrap(pqErr, appErrors.CodePersistence, http.StatusConflict, message)
	case "23503":
		if op == models.OperationDelete {
			message := fmt.Sprintf("Cannot delete %s because other records still reference it.", label)
			return appErrors.Wrap(pqErr, appErrors.CodePersistence, http.StatusConflict, message)
		}
		ref := referenceLabels[constraintColumn(pqErr.Constraint)]
		if ref == "" {
			ref = "related record"
		}
		message := fmt.Sprintf("The selected %s does not exist. Please select a valid %s.", ref, ref)
		return appErrors.Wrap(pqErr, appErrors.CodePersistence, http.StatusUnprocessableEntity, message)
	case "23502", "23514", "22001", "22P02":
		return appErrors.Wrap(pqErr, appErrors.CodeValidation, http.StatusBadRequest, "Some of the submitted values are not valid.")
	}
	return appErrors.Wrap(pqErr, appErrors.CodePersistence, http.StatusInternalServerError, msgUnexpected)
}

// constraintField derives the offending column from names like students_username_key.
func constraintField(constraint string, kind models.EntityKind) string {
	name := strings.TrimPrefix(constraint, kind.Plural()+"_")
	for _, suffix := range []string{"_key", "_idx", "_unique"} {
		name = strings.TrimSuffix(name, suffix)
	}
	if name == "" || name == constraint {
		return "value"
	}
	return name
}

// constraintColumn extracts the column from foreign key names like lessons_subject_id_fkey.
func constraintColumn(constraint string) string {
	name := strings.TrimSuffix(constraint, "_fkey")
	for column := range referenceLabels {
		if strings.HasSuffix(name, column) {
			return column
		}
	}
	return ""
}

func notFoundMessage(kind models.EntityKind) string {
	if kind == "" {
		return appErrors.ErrNotFound.Message
	}
	return kind.Label() + " not found"
}
