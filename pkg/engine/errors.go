package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/updlflow/pkg/graph"
)

// Kind classifies an engine failure for callers.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindExecution    Kind = "execution"
	KindCancelled    Kind = "cancelled"
)

var (
	// Request errors.
	ErrInvalidRequest     = errors.New("invalid prediction request")
	ErrMissingQuestion    = errors.New("a question or an audio upload is required")
	ErrSpeechUnavailable  = errors.New("speech to text is not configured")
	ErrStorageUnavailable = errors.New("file storage is not configured")

	// ErrNoEndingNode is returned when no node can end the flow.
	ErrNoEndingNode = errors.New("no ending node found for flow")

	// ErrAborted is the cancellation cause of invocations aborted by a client.
	// It matches context.Canceled.
	ErrAborted = fmt.Errorf("prediction aborted by client: %w", context.Canceled)
)

// Error is the structured failure of one invocation.
type Error struct {
	Kind     Kind
	Op       string
	NodeID   string
	NodeName string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Op)

	if e.NodeID != "" {
		fmt.Fprintf(&sb, ": node %s (%s)", e.NodeID, e.NodeName)
	}

	if e.Message != "" {
		sb.WriteString(": " + e.Message)
	}

	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}

	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func nodeError(kind Kind, op, nodeID, nodeName string, err error) *Error {
	return &Error{Kind: kind, Op: op, NodeID: nodeID, NodeName: nodeName, Err: err}
}

// graphError classifies errors returned by the graph package.
func graphError(op string, err error) *Error {
	if graph.IsGraphError(err) {
		return newError(KindValidation, op, err)
	}

	return newError(KindExecution, op, err)
}

// cancelled converts a context failure into a cancelled error, keeping the cause.
func cancelled(ctx context.Context, op, nodeID, nodeName string) *Error {
	return nodeError(KindCancelled, op, nodeID, nodeName, context.Cause(ctx))
}

// KindOf returns the kind of err, KindExecution for errors the engine did not produce.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindExecution
}

func IsValidation(err error) bool {
	return hasKind(err, KindValidation)
}

func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

func IsUnauthorized(err error) bool {
	return hasKind(err, KindUnauthorized)
}

func IsExecution(err error) bool {
	return hasKind(err, KindExecution)
}

func IsCancelled(err error) bool {
	return hasKind(err, KindCancelled)
}

func hasKind(err error, kind Kind) bool {
	var e *Error

	return errors.As(err, &e) && e.Kind == kind
}
