// Package services provides the management operations behind the HTTP API.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/updlflow/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrFlowNil        = errors.New("flow cannot be nil")
	ErrNameRequired   = errors.New("name is required")
	ErrNodesRequired  = errors.New("flow must have at least one node")

	// Deployment Validation Errors (400 Bad Request).
	ErrUnknownNodeType = errors.New("flow uses an unregistered node")
	ErrNoEndingNode    = errors.New("flow has no ending node for its type")

	// Not found (404).
	ErrFlowNotFound     = persistence.ErrFlowNotFound
	ErrVariableNotFound = persistence.ErrVariableNotFound

	// Business Logic Conflicts (409 Conflict).
	ErrVariableExists = persistence.ErrVariableAlreadyExists
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrFlowNil) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrUnknownNodeType) ||
		errors.Is(err, ErrNoEndingNode)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrFlowNotFound) || errors.Is(err, ErrVariableNotFound)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrVariableExists)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
