package project

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the project doesn't exist.
	ErrNotFound = errors.New("project not found")
	// ErrAlreadyFinished indicates the project no longer accepts joins or check-ins.
	ErrAlreadyFinished = errors.New("project already finished")
	// ErrDuplicateMembership indicates the caller already joined.
	ErrDuplicateMembership = errors.New("already a member")
	// ErrCapacity indicates the project has MaxMembers members.
	ErrCapacity = errors.New("project is full")
	// ErrUnauthorized indicates the caller may not perform the operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTooEarly indicates the project end date has not passed yet.
	ErrTooEarly = fmt.Errorf("%w: project has not reached its end date", ErrUnauthorized)
	// ErrSignatureMismatch indicates the signature was not produced by the caller.
	ErrSignatureMismatch = errors.New("signature mismatch")
	// ErrReplay indicates a stale, future, or already-recorded check-in.
	ErrReplay = errors.New("replayed check-in")
	// ErrTransientConflict indicates the mutation lost too many optimistic races.
	ErrTransientConflict = errors.New("transient conflict")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError is returned when retries are exhausted.
type ConflictError struct {
	ProjectID uint64
	Attempts  int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("project %d: gave up after %d conflicting attempts", e.ProjectID, e.Attempts)
}

func (e *ConflictError) Unwrap() error {
	return ErrTransientConflict
}
