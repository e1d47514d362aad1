// Package telemetry emits flow events without ever failing the flow that
// produced them.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukex/updlflow/pkg/eventbus"
)

// Sink receives flow events.
type Sink interface {
	Emit(ctx context.Context, key string, event eventbus.Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Emit(context.Context, string, eventbus.Event) {}

// BusSink publishes events on an event bus in the background.
type BusSink struct {
	publisher eventbus.EventPublisher
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// NewBusSink creates a sink publishing prediction events on publisher.
func NewBusSink(publisher eventbus.EventPublisher, logger *slog.Logger) *BusSink {
	return &BusSink{
		publisher: publisher,
		logger:    logger.With("module", "telemetry"),
	}
}

// Emit publishes event asynchronously. Publish errors are logged and dropped.
func (s *BusSink) Emit(ctx context.Context, key string, event eventbus.Event) {
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		if err := s.publisher.Publish(ctx, key, event); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish telemetry event", "event_type", event.GetType(), "error", err)
		}
	}()
}

// Flush waits for in-flight events.
func (s *BusSink) Flush() {
	s.wg.Wait()
}
