package persistence_test

import (
	"errors"
	"testing"

	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		flowErr := persistence.NewFlowError("GetByID", "flow-123", persistence.ErrFlowNotFound)
		varErr := &persistence.VariableError{Op: "Save", Name: "city", Err: persistence.ErrVariableAlreadyExists}

		assert.True(t, persistence.IsFlowNotFound(flowErr))
		assert.True(t, persistence.IsVariableAlreadyExists(varErr))
		assert.False(t, persistence.IsVariableNotFound(varErr))

		assert.True(t, errors.Is(flowErr, persistence.ErrFlowNotFound))
		assert.Equal(t, persistence.ErrVariableAlreadyExists, errors.Unwrap(varErr))
	})

	t.Run("flow error contains context", func(t *testing.T) {
		err := persistence.NewFlowError("Delete", "flow-123", persistence.ErrFlowNotFound)

		assert.Equal(t, "Delete operation failed for flow flow-123: flow not found", err.Error())

		err.Message = "already removed"
		assert.Contains(t, err.Error(), "already removed")
	})

	t.Run("variable error contains context", func(t *testing.T) {
		err := &persistence.VariableError{Op: "Delete", Name: "v-1", Err: persistence.ErrVariableNotFound}

		assert.Contains(t, err.Error(), "Delete")
		assert.Contains(t, err.Error(), "v-1")
		assert.Contains(t, err.Error(), "variable not found")
	})
}
