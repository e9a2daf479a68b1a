package services

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
	// ErrNotFound covers both absent records and records the caller may
	// not see, so existence is never leaked.
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("operation not allowed in current state")
	ErrInvalidLogin  = errors.New("invalid credentials")
)

// ValidationError names the offending field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// ConflictError carries a human readable reason for a state conflict.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func (e *ConflictError) Is(target error) bool { return target == ErrStateConflict }

func conflict(reason string) error {
	return &ConflictError{Reason: reason}
}
