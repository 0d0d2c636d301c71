package services

import (
	"errors"
	"fmt"

	"github.com/happythoughts/apiserver/internal/store"
)

var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = store.ErrNotFound
	ErrInternal   = errors.New("internal error")
)

// ValidationError reports a rejected input field. Message is safe to show
// to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
