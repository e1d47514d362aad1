// Package events defines the telemetry events emitted while flows run.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every flow event.
const Topic = "updlflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	NodeExecutedEvent      EventType = "node_executed"
	PredictionSentEvent    EventType = "prediction_sent"
	PredictionFailedEvent  EventType = "prediction_failed"
	PredictionAbortedEvent EventType = "prediction_aborted"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowID    string         `json:"flow_id"`
	ChatID    string         `json:"chat_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NodeExecuted is emitted after an ancestor node initialized successfully.
type NodeExecuted struct {
	BaseEvent

	NodeID     string `json:"node_id"`
	NodeName   string `json:"node_name"`
	Category   string `json:"category"`
	Depth      int    `json:"depth"`
	DurationMs int64  `json:"duration_ms"`
}

func (n NodeExecuted) GetType() EventType {
	return NodeExecutedEvent
}

// PredictionSent is emitted when a flow produced its result.
type PredictionSent struct {
	BaseEvent

	MessageID    string `json:"message_id"`
	FlowType     string `json:"flow_type"`
	TerminalNode string `json:"terminal_node"`
	Streaming    bool   `json:"streaming"`
	DurationMs   int64  `json:"duration_ms"`
}

func (p PredictionSent) GetType() EventType {
	return PredictionSentEvent
}

// PredictionFailed is emitted when a flow invocation failed.
type PredictionFailed struct {
	BaseEvent

	MessageID  string `json:"message_id,omitempty"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
	NodeID     string `json:"node_id,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func (p PredictionFailed) GetType() EventType {
	return PredictionFailedEvent
}

// PredictionAborted is emitted when a client cancelled a running invocation.
type PredictionAborted struct {
	BaseEvent
}

func (p PredictionAborted) GetType() EventType {
	return PredictionAbortedEvent
}

func NewBaseEvent(eventType EventType, flowID, chatID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
		ChatID:    chatID,
		Metadata:  make(map[string]any),
	}
}
