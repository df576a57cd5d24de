package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by services and adapters.
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrQuotaExceeded = errors.New("qr code limit reached")
)

// FieldError describes a validation failure on a single input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries one or more field failures and unwraps to ErrValidation.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if fe.Field == "" {
			msgs = append(msgs, fe.Message)
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}
