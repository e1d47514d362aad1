package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/updlflow/pkg/cache"
	"github.com/dukex/updlflow/pkg/engine"
	"github.com/dukex/updlflow/pkg/registry"
	"github.com/dukex/updlflow/pkg/speech"
	"github.com/dukex/updlflow/pkg/storage"
	"github.com/dukex/updlflow/pkg/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// RuntimeConfig is the process configuration of the engine runtime.
type RuntimeConfig struct {
	CacheURL    string
	StoragePath string
	// OpenAIAPIKey enables audio transcription when set.
	OpenAIAPIKey string
	Telemetry    telemetry.Sink
	Tracer       trace.Tracer
}

// NewRuntime builds the runtime shared by every prediction.
func NewRuntime(ctx context.Context, logger *slog.Logger, reg *registry.Registry, cfg RuntimeConfig) (*engine.Runtime, error) {
	rt := engine.NewRuntime(reg, logger)

	pool, err := cache.NewPool(ctx, cfg.CacheURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache pool: %w", err)
	}

	rt.Cache = pool

	if cfg.StoragePath != "" {
		files, err := storage.NewLocalStorage(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}

		rt.Storage = files
	}

	if cfg.OpenAIAPIKey != "" {
		rt.Transcriber = speech.NewOpenAITranscriber(cfg.OpenAIAPIKey)
	} else {
		logger.WarnContext(ctx, "No OpenAI API key configured, audio uploads are disabled")
	}

	if cfg.Telemetry != nil {
		rt.Telemetry = cfg.Telemetry
	}

	if cfg.Tracer != nil {
		rt.Tracer = cfg.Tracer
	}

	return rt, nil
}
