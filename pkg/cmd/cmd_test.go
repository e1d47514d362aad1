package cmd

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dukex/updlflow/pkg/cache"
	"github.com/dukex/updlflow/pkg/persistence/file"
	"github.com/dukex/updlflow/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersistenceProvider(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"postgres://u:p@localhost/db":   "postgres",
		"postgresql://u:p@localhost/db": "postgres",
		"file:///var/lib/updlflow":      "file",
		"./data":                        "file",
		"mysql://localhost/db":          "file",
	}

	for url, want := range tests {
		assert.Equal(t, want, parsePersistenceProvider(url), url)
	}
}

func TestNewPersistence_File(t *testing.T) {
	t.Parallel()

	p, err := NewPersistence(t.Context(), slog.New(slog.DiscardHandler), "file://"+t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &file.Persistence{}, p)
	require.NoError(t, p.HealthCheck(t.Context()))
}

func TestNewEventBus(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)

	bus, err := NewEventBus("gochannel", "", logger)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = NewEventBus("kafka", " , ", logger)
	require.Error(t, err)

	_, err = NewEventBus("rabbitmq", "", logger)
	require.ErrorContains(t, err, "unsupported event bus provider")
}

func TestNewRuntime(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	reg := NewRegistry(logger, "key")

	_, ok := reg.GetNodeFactory("llmChain")
	require.True(t, ok)

	rt, err := NewRuntime(t.Context(), logger, reg, RuntimeConfig{
		StoragePath: filepath.Join(t.TempDir(), "uploads"),
		Telemetry:   telemetry.Nop{},
	})
	require.NoError(t, err)

	assert.IsType(t, &cache.MemoryPool{}, rt.Cache)
	assert.NotNil(t, rt.Storage)
	assert.Nil(t, rt.Transcriber)

	rt, err = NewRuntime(t.Context(), logger, reg, RuntimeConfig{OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	assert.Nil(t, rt.Storage)
	assert.NotNil(t, rt.Transcriber)

	_, err = NewRuntime(t.Context(), logger, reg, RuntimeConfig{CacheURL: "memcached://x"})
	require.Error(t, err)
}
