// Package validation checks mutation payloads before any I/O happens. It is pure: the verdict
// depends only on the payload.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/noah-isme/school-dashboard-api/internal/dto"
	"github.com/noah-isme/school-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
)

// custom tags
const (
	tagWeekday         = "weekday"
	tagSex             = "sex"
	tagRequiredWithout = "required_without"
	tagSingleReference = "single_reference"
	tagNotBefore       = "not_before"
	tagAfter           = "after"
)

var weekdays = map[string]struct{}{
	string(models.Monday):    {},
	string(models.Tuesday):   {},
	string(models.Wednesday): {},
	string(models.Thursday):  {},
	string(models.Friday):    {},
}

// Violations lists every rejected field of a payload.
type Violations []appErrors.FieldViolation

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, f := range v {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

// Summary is the message shown when a form can display only one line: the first violation.
func (v Violations) Summary() string {
	if len(v) == 0 {
		return ""
	}
	return v[0].Message
}

// Validator wraps go-playground/validator with English messages keyed by JSON field names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a Validator with the custom tags and cross-field rules registered.
func New() *Validator {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(tagWeekday, func(fl validator.FieldLevel) bool {
		_, ok := weekdays[fl.Field().String()]
		return ok
	})
	_ = validate.RegisterValidation(tagSex, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == string(models.SexMale) || s == string(models.SexFemale)
	})

	validate.RegisterStructValidation(resultStructValidation, dto.ResultRequest{})
	validate.RegisterStructValidation(assignmentStructValidation, dto.AssignmentRequest{})
	validate.RegisterStructValidation(timeRangeStructValidation, dto.LessonRequest{}, dto.ExamRequest{}, dto.EventRequest{})

	v := &Validator{validate: validate, translator: translator}
	v.registerTranslations(tagWeekday, tagSex, tagRequiredWithout, tagSingleReference, tagNotBefore, tagAfter)
	return v
}

// Struct validates a payload. It returns Violations when the payload is rejected.
func (v *Validator) Struct(payload interface{}) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(Violations, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, appErrors.FieldViolation{Field: fe.Field(), Message: fe.Translate(v.translator)})
	}
	return out
}

// registerTranslations attaches messages for tags without a default English translation. The
// RegisterTranslationsFunc is a noop because the messages are rendered directly.
func (v *Validator) registerTranslations(tags ...string) {
	noop := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = v.validate.RegisterTranslation(tag, v.translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case tagWeekday:
		return fmt.Sprintf("%s must be a school day (MONDAY to FRIDAY)", fe.Field())
	case tagSex:
		return fmt.Sprintf("%s must be MALE or FEMALE", fe.Field())
	case tagRequiredWithout:
		return fmt.Sprintf("%s is a required field", fe.Field())
	case tagSingleReference:
		return "a result can belong to an exam or an assignment, not both"
	case tagNotBefore:
		return fmt.Sprintf("%s must not be before %s", fe.Field(), fe.Param())
	case tagAfter:
		return fmt.Sprintf("%s must be after %s", fe.Field(), fe.Param())
	default:
		return fe.Error()
	}
}

func resultStructValidation(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(dto.ResultRequest)
	if !ok {
		return
	}
	if req.ExamID != nil && req.AssignmentID != nil {
		sl.ReportError(req.AssignmentID, "assignmentId", "AssignmentID", tagSingleReference, "")
	}
}

func assignmentStructValidation(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(dto.AssignmentRequest)
	if !ok {
		return
	}
	if !req.StartDate.IsZero() && !req.DueDate.IsZero() && req.DueDate.Before(req.StartDate) {
		sl.ReportError(req.DueDate, "dueDate", "DueDate", tagNotBefore, "startDate")
	}
}

func timeRangeStructValidation(sl validator.StructLevel) {
	start, end := timeRange(sl.Current().Interface())
	if start.IsZero() || end.IsZero() {
		return
	}
	if !end.After(start) {
		sl.ReportError(end, "endTime", "EndTime", tagAfter, "startTime")
	}
}

func timeRange(payload interface{}) (time.Time, time.Time) {
	switch p := payload.(type) {
	case dto.LessonRequest:
		return p.StartTime, p.EndTime
	case dto.ExamRequest:
		return p.StartTime, p.EndTime
	case dto.EventRequest:
		return p.StartTime, p.EndTime
	}
	return time.Time{}, time.Time{}
}
