// Package protocol defines the interfaces and contracts for pluggable nodes.
package protocol

import (
	"context"
	"log/slog"

	"github.com/dukex/updlflow/pkg/cache"
	"github.com/dukex/updlflow/pkg/models"
)

// Node is one executable unit of a flow. Instances are created fresh for every invocation.
type Node interface {
	// Init prepares the node and returns the output recorded for downstream nodes.
	Init(ctx context.Context, data *models.NodeData, input string, opts *Options) (any, error)

	// Run produces the final result when the node ends a flow.
	Run(ctx context.Context, data *models.NodeData, input string, opts *Options) (any, error)
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance
	Create(ctx context.Context) (Node, error)

	// ID returns the name nodes use to reference this factory
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Category returns the category of the nodes this factory creates
	Category() models.Category

	// Schema returns the JSON schema of the resolved inputs, nil when unchecked
	Schema() *models.JSONSchema
}

// Streamer publishes partial results to the caller while a flow runs.
type Streamer interface {
	StreamStart(ctx context.Context, chatID string)
	StreamToken(ctx context.Context, chatID, token string)
	StreamEnd(ctx context.Context, chatID string)
}

// Options are the flow scoped parameters passed to every node call.
type Options struct {
	FlowID         string
	ChatID         string
	SessionID      string
	MessageID      string
	Question       string
	ChatHistory    []models.HistoryMessage
	Uploads        []models.Upload
	FileAttachment string

	Cache     cache.Pool
	Instances *cache.Instances
	Logger    *slog.Logger

	// Streamer is nil unless the caller asked for streaming.
	Streamer Streamer
}

// Streaming reports whether partial results should be published.
func (o *Options) Streaming() bool {
	return o != nil && o.Streamer != nil
}

// Log returns the node logger, falling back to the default logger.
func (o *Options) Log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}

	return o.Logger
}
