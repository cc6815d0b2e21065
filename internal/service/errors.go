package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when request validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested source document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when a collaborator (embeddings, vector
	// store, chunk store) fails.
	ErrExternalService = errors.New("external service error")
)

// ValidationError reports which request field was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) match validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// WrapError wraps err with msg, returning nil for a nil err.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// externalError marks err as a collaborator failure while keeping its chain.
func externalError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, errors.Join(ErrExternalService, err))
}
