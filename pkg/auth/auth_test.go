package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKey(t *testing.T) {
	t.Parallel()

	key, hash, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.NotEqual(t, key, hash)

	require.NoError(t, VerifyAPIKey(hash, key))
	require.ErrorIs(t, VerifyAPIKey(hash, "wrong"), ErrInvalidAPIKey)
	require.ErrorIs(t, VerifyAPIKey(hash, ""), ErrInvalidAPIKey)
	assert.NoError(t, VerifyAPIKey("", "anything"))

	other, _, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}
