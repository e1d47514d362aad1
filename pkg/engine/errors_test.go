package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/updlflow/pkg/graph"
	"github.com/stretchr/testify/assert"
)

func TestError_Kinds(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err   error
		kind  Kind
		check func(error) bool
	}{
		{err: newError(KindValidation, "op", ErrInvalidRequest), kind: KindValidation, check: IsValidation},
		{err: newError(KindNotFound, "op", ErrNoEndingNode), kind: KindNotFound, check: IsNotFound},
		{err: newError(KindUnauthorized, "op", errors.New("bad key")), kind: KindUnauthorized, check: IsUnauthorized},
		{err: nodeError(KindExecution, "op", "n1", "llmChain", errBoom), kind: KindExecution, check: IsExecution},
		{err: newError(KindCancelled, "op", ErrAborted), kind: KindCancelled, check: IsCancelled},
		{err: graphError("op", fmt.Errorf("%w: x", graph.ErrCycleDetected)), kind: KindValidation, check: IsValidation},
		{err: graphError("op", errBoom), kind: KindExecution, check: IsExecution},
	}

	for _, tc := range testCases {
		t.Run(string(tc.kind), func(t *testing.T) {
			t.Parallel()

			wrapped := fmt.Errorf("outer: %w", tc.err)

			assert.True(t, tc.check(wrapped))
			assert.Equal(t, tc.kind, KindOf(wrapped))
		})
	}

	assert.Equal(t, KindExecution, KindOf(errBoom))
	assert.False(t, IsValidation(errBoom))
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := &Error{Kind: KindExecution, Op: "execute_node", NodeID: "n1", NodeName: "llmChain", Message: "init", Err: errBoom}
	assert.Equal(t, "execute_node: node n1 (llmChain): init: boom", err.Error())
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, "predict: flow missing", (&Error{Op: "predict", Message: "flow missing"}).Error())
}
