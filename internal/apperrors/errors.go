package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for input that fails validation. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation builds a ValidationError from field errors.
func Validation(fields ...FieldError) error {
	return &ValidationError{Fields: fields}
}

// Invalid is shorthand for a single-field validation error.
func Invalid(field, message string) error {
	return Validation(FieldError{Field: field, Message: message})
}

// NotFound wraps ErrNotFound with the kind and id of the missing resource.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// Fields returns the field errors carried by err, if any.
func Fields(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// Prefix returns a copy of err with every field name prefixed, used to report
// per-item failures of a batch ("places[2].name").
func Prefix(err error, prefix string) error {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	out := make([]FieldError, len(ve.Fields))
	for i, f := range ve.Fields {
		out[i] = FieldError{Field: prefix + "." + f.Field, Message: f.Message}
	}
	return &ValidationError{Fields: out}
}

// FromValidator converts validator.ValidationErrors into a ValidationError.
// Other errors are returned unchanged.
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return &ValidationError{Fields: fields}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "min":
		return "must have at least " + fe.Param() + " characters"
	case "datetime":
		return "must be a date in the form YYYY-MM-DD"
	default:
		return "is invalid"
	}
}
