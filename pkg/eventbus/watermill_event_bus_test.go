package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/updlflow/pkg/channels/gochannel"
	"github.com/dukex/updlflow/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	received := make(chan *events.NodeExecuted, 1)

	require.NoError(t, bus.Handle(events.NodeExecutedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.NodeExecuted)

		return nil
	}))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	sent := &events.NodeExecuted{
		BaseEvent: events.NewBaseEvent(events.NodeExecutedEvent, "flow-1", "chat-1"),
		NodeID:    "llmChain_0",
		NodeName:  "llmChain",
	}
	require.NoError(t, bus.Publish(ctx, "flow-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "llmChain_0", got.NodeID)
		assert.Equal(t, "chat-1", got.ChatID)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestWatermillEventBus_UnhandledEventsAreAcked(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	received := make(chan events.EventType, 2)

	require.NoError(t, bus.Handle(events.PredictionFailedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.PredictionFailed).Type

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	require.NoError(t, bus.Publish(t.Context(), "k", events.PredictionSent{BaseEvent: events.NewBaseEvent(events.PredictionSentEvent, "f", "c")}))
	require.NoError(t, bus.Publish(t.Context(), "k", events.PredictionFailed{BaseEvent: events.NewBaseEvent(events.PredictionFailedEvent, "f", "c"), Error: "boom"}))

	select {
	case got := <-received:
		assert.Equal(t, events.PredictionFailedEvent, got)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestGenerateID(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
