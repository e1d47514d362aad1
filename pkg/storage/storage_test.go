package storage

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveRead(t *testing.T) {
	t.Parallel()

	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := s.Save(t.Context(), "flow", "chat", "../notes.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", name)

	data, err := s.Read(t.Context(), "flow", "chat", name)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.DeleteFlow(t.Context(), "flow"))

	_, err = s.Read(t.Context(), "flow", "chat", name)
	assert.Error(t, err)
}

func TestLocalStorage_InvalidNames(t *testing.T) {
	t.Parallel()

	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(t.Context(), "../flow", "chat", "a.txt", nil)
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = s.Read(t.Context(), "flow", "", "a.txt")
	require.ErrorIs(t, err, ErrInvalidName)

	assert.ErrorIs(t, s.DeleteFlow(t.Context(), ".."), ErrInvalidName)
}

func TestDecodeData(t *testing.T) {
	t.Parallel()

	encoded := base64.StdEncoding.EncodeToString([]byte("audio bytes"))

	testCases := []struct {
		name    string
		data    string
		mime    string
		wantErr bool
	}{
		{name: "plain base64", data: encoded},
		{name: "data url", data: "data:audio/webm;base64," + encoded, mime: "audio/webm"},
		{name: "malformed data url", data: "data:audio/webm", wantErr: true},
		{name: "not base64", data: "%%%", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mime, raw, err := DecodeData(tc.data)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidData)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.mime, mime)
			assert.Equal(t, "audio bytes", string(raw))
		})
	}
}
