package rpc

import (
	"errors"
	"fmt"

	"github.com/rpggio/cotime/internal/domain/activity"
	"github.com/rpggio/cotime/internal/domain/project"
)

var (
	// ErrUnknownMethod indicates a dispatch to a method that does not exist.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrInvalidParams indicates params that could not be decoded.
	ErrInvalidParams = errors.New("invalid params")
)

// Error codes returned to callers.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyFinished     = "ALREADY_FINISHED"
	CodeDuplicateMembership = "DUPLICATE_MEMBERSHIP"
	CodeCapacity            = "CAPACITY"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeSignatureMismatch   = "SIGNATURE_MISMATCH"
	CodeReplay              = "REPLAY"
	CodeTransientConflict   = "TRANSIENT_CONFLICT"
	CodeMethodNotFound      = "METHOD_NOT_FOUND"
	CodeInvalidParams       = "INVALID_PARAMS"
	CodeInternal            = "INTERNAL"
)

// APIError is the error shape returned by every surface.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to API error codes. Errors it does not
// recognise become CodeInternal without leaking their text.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var validation *project.ValidationError
	if errors.As(err, &validation) {
		return &APIError{
			Code:    CodeValidation,
			Message: validation.Error(),
			Details: map[string]string{"field": validation.Field, "reason": validation.Reason},
		}
	}

	var conflict *project.ConflictError
	if errors.As(err, &conflict) {
		return &APIError{
			Code:         CodeTransientConflict,
			Message:      conflict.Error(),
			Details:      map[string]any{"project_id": conflict.ProjectID, "attempts": conflict.Attempts},
			RecoveryHint: "Retry the request",
		}
	}

	switch {
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: CodeMethodNotFound, Message: err.Error()}
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: CodeInvalidParams, Message: err.Error()}
	case errors.Is(err, project.ErrValidation), errors.Is(err, activity.ErrInvalidOptions):
		return &APIError{Code: CodeValidation, Message: err.Error()}
	case errors.Is(err, project.ErrNotFound):
		return &APIError{Code: CodeNotFound, Message: err.Error(), RecoveryHint: "Check the project id"}
	case errors.Is(err, project.ErrAlreadyFinished):
		return &APIError{Code: CodeAlreadyFinished, Message: err.Error()}
	case errors.Is(err, project.ErrDuplicateMembership):
		return &APIError{Code: CodeDuplicateMembership, Message: err.Error()}
	case errors.Is(err, project.ErrCapacity):
		return &APIError{Code: CodeCapacity, Message: err.Error()}
	case errors.Is(err, project.ErrUnauthorized):
		return &APIError{Code: CodeUnauthorized, Message: err.Error()}
	case errors.Is(err, project.ErrSignatureMismatch):
		return &APIError{Code: CodeSignatureMismatch, Message: err.Error(), RecoveryHint: "Sign with the caller's key"}
	case errors.Is(err, project.ErrReplay):
		return &APIError{Code: CodeReplay, Message: err.Error()}
	case errors.Is(err, project.ErrTransientConflict):
		return &APIError{Code: CodeTransientConflict, Message: err.Error(), RecoveryHint: "Retry the request"}
	default:
		return &APIError{Code: CodeInternal, Message: "internal error"}
	}
}
