// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrVariableNotFound indicates a variable was not found by the given identifier.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrVariableAlreadyExists indicates another variable already uses the name.
	ErrVariableAlreadyExists = errors.New("variable already exists")
)

// FlowError wraps flow-related errors with additional context.
type FlowError struct {
	Op      string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	FlowID  string
	Err     error
	Message string
}

func (e *FlowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for flow %s: %s (%v)", e.Op, e.FlowID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for flow %s: %v", e.Op, e.FlowID, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for flow errors.
func (e *FlowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFlowError creates a new flow error with context.
func NewFlowError(op, flowID string, err error) *FlowError {
	return &FlowError{
		Op:     op,
		FlowID: flowID,
		Err:    err,
	}
}

// VariableError wraps variable-related errors with additional context.
type VariableError struct {
	Op   string
	Name string
	Err  error
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("%s operation failed for variable %s: %v", e.Op, e.Name, e.Err)
}

func (e *VariableError) Unwrap() error {
	return e.Err
}

func (e *VariableError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsFlowNotFound checks if an error indicates a flow was not found.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsVariableNotFound checks if an error indicates a variable was not found.
func IsVariableNotFound(err error) bool {
	return errors.Is(err, ErrVariableNotFound)
}

// IsVariableAlreadyExists checks if an error indicates a duplicate variable name.
func IsVariableAlreadyExists(err error) bool {
	return errors.Is(err, ErrVariableAlreadyExists)
}
