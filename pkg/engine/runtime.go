// Package engine executes flow graphs: it orders ancestor nodes, runs them and
// dispatches the node that ends the flow.
package engine

import (
	"log/slog"

	"github.com/dukex/updlflow/pkg/cache"
	"github.com/dukex/updlflow/pkg/cancellation"
	"github.com/dukex/updlflow/pkg/otelhelper"
	"github.com/dukex/updlflow/pkg/registry"
	"github.com/dukex/updlflow/pkg/speech"
	"github.com/dukex/updlflow/pkg/storage"
	"github.com/dukex/updlflow/pkg/telemetry"
	"github.com/dukex/updlflow/pkg/variables"
	"go.opentelemetry.io/otel/trace"
)

// Runtime holds the process wide collaborators shared by every invocation.
type Runtime struct {
	Registry     *registry.Registry
	Resolver     *variables.Resolver
	Cache        cache.Pool
	Instances    *cache.Instances
	Cancellation *cancellation.Registry
	Telemetry    telemetry.Sink
	Tracer       trace.Tracer
	Logger       *slog.Logger

	// Storage and Transcriber are optional. Without them uploads needing
	// them are rejected.
	Storage     storage.Storage
	Transcriber speech.Transcriber
}

// NewRuntime returns a runtime with in-memory pools, no telemetry and no tracing.
// Fields may be replaced before the runtime is used.
func NewRuntime(reg *registry.Registry, logger *slog.Logger) *Runtime {
	return &Runtime{
		Registry:     reg,
		Resolver:     variables.NewResolver(logger),
		Cache:        cache.NewMemoryPool(),
		Instances:    cache.NewInstances(),
		Cancellation: cancellation.NewRegistry(),
		Telemetry:    telemetry.Nop{},
		Tracer:       otelhelper.NoopTracer(),
		Logger:       logger,
	}
}
