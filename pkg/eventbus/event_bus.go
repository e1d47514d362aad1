// Package eventbus publishes flow events over watermill transports.
package eventbus

import (
	"context"

	"github.com/dukex/updlflow/pkg/events"
)

// Event is a prediction lifecycle event. All events share one topic and the
// type, carried in message metadata, selects the handler.
type Event interface {
	GetType() events.EventType
}

// EventPublisher sends flow events. key partitions the stream, callers pass
// the flow ID so events of one flow stay ordered on partitioned transports.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber routes flow events to handlers. Events without a handler
// are acknowledged and dropped, so handlers belong before Subscribe.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event. A returned error
// nacks the message.
type EventHandler func(ctx context.Context, event any) error

// EventBus is both ends of a flow event transport.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	// GenerateID returns a unique message ID.
	GenerateID() string
}
