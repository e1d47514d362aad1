package log

import (
	"context"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

// LogNodeFactory creates LogNode instances.
type LogNodeFactory struct{}

// Create creates a new LogNode instance.
func (f *LogNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return NewLogNode(), nil
}

// ID returns the factory ID.
func (f *LogNodeFactory) ID() string {
	return "log"
}

// Name returns the factory name.
func (f *LogNodeFactory) Name() string {
	return "Log"
}

// Description returns the factory description.
func (f *LogNodeFactory) Description() string {
	return "Logs a message at the given level (debug, info, warn, error) with template support for dynamic content"
}

// Category returns the node category.
func (f *LogNodeFactory) Category() models.Category {
	return models.CategoryUtility
}

// Schema returns the JSON schema for Log node inputs.
func (f *LogNodeFactory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Log",
		Properties: map[string]*models.Property{
			"message": {
				Type:        "string",
				Description: "Message to log. Supports Go templates such as {{ .input }} or {{ .flow.chat_id }}.",
			},
			"level": {
				Type:        "string",
				Description: "Log level for the message",
				Enum:        []any{"debug", "info", "warn", "error"},
				Default:     "info",
			},
		},
		Required: []string{"message"},
	}
}

// NewLogNodeFactory creates a new factory instance.
func NewLogNodeFactory() protocol.NodeFactory {
	return &LogNodeFactory{}
}
