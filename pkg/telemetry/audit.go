package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/updlflow/pkg/eventbus"
	"github.com/dukex/updlflow/pkg/events"
)

// AuditLog consumes prediction events and writes one log line per finished
// prediction.
type AuditLog struct {
	logger *slog.Logger
}

// NewAuditLog creates an audit log writing to logger.
func NewAuditLog(logger *slog.Logger) *AuditLog {
	return &AuditLog{logger: logger.With("module", "audit")}
}

// Register installs the prediction handlers on subscriber. The caller still
// has to start the subscription.
func (a *AuditLog) Register(subscriber eventbus.EventSubscriber) error {
	handlers := []struct {
		eventType events.EventType
		handler   eventbus.EventHandler
	}{
		{events.PredictionSentEvent, a.predictionSent},
		{events.PredictionFailedEvent, a.predictionFailed},
		{events.PredictionAbortedEvent, a.predictionAborted},
	}

	for _, h := range handlers {
		if err := subscriber.Handle(h.eventType, h.handler); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", h.eventType, err)
		}
	}

	return nil
}

func (a *AuditLog) predictionSent(ctx context.Context, event any) error {
	e, ok := event.(*events.PredictionSent)
	if !ok {
		return unexpected(event)
	}

	a.logger.InfoContext(ctx, "Prediction sent",
		"flow_id", e.FlowID,
		"chat_id", e.ChatID,
		"message_id", e.MessageID,
		"flow_type", e.FlowType,
		"terminal_node", e.TerminalNode,
		"streaming", e.Streaming,
		"duration_ms", e.DurationMs,
	)

	return nil
}

func (a *AuditLog) predictionFailed(ctx context.Context, event any) error {
	e, ok := event.(*events.PredictionFailed)
	if !ok {
		return unexpected(event)
	}

	a.logger.WarnContext(ctx, "Prediction failed",
		"flow_id", e.FlowID,
		"chat_id", e.ChatID,
		"kind", e.Kind,
		"node_id", e.NodeID,
		"error", e.Error,
		"duration_ms", e.DurationMs,
	)

	return nil
}

func (a *AuditLog) predictionAborted(ctx context.Context, event any) error {
	e, ok := event.(*events.PredictionAborted)
	if !ok {
		return unexpected(event)
	}

	a.logger.InfoContext(ctx, "Prediction aborted", "flow_id", e.FlowID, "chat_id", e.ChatID)

	return nil
}

func unexpected(event any) error {
	return fmt.Errorf("unexpected event payload %T", event)
}
