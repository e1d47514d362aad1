// Package log provides a node that logs a rendered message and passes its input through.
package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
	"github.com/dukex/updlflow/pkg/template"
)

// LogLevel represents different logging levels.
type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

var slogLevel = map[LogLevel]slog.Level{
	Debug: slog.LevelDebug,
	Info:  slog.LevelInfo,
	Warn:  slog.LevelWarn,
	Error: slog.LevelError,
}

// Config is the resolved configuration of a log node.
type Config struct {
	Message string   `json:"message"`
	Level   LogLevel `json:"level"`
}

// LogNode logs a message rendered against the node context.
type LogNode struct{}

func NewLogNode() *LogNode {
	return &LogNode{}
}

// Init logs the message and returns it so downstream nodes can reference it.
func (n *LogNode) Init(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	cfg := Config{Level: Info}
	if err := models.DecodeInputs(data.Inputs, &cfg); err != nil {
		return nil, err
	}

	level, ok := slogLevel[cfg.Level]
	if !ok {
		return nil, fmt.Errorf("invalid log level '%s' (must be debug, info, warn, or error)", cfg.Level)
	}

	message, err := template.RenderString(cfg.Message, template.NodeContext(input, data, opts))
	if err != nil {
		return nil, fmt.Errorf("failed to render log message template: %w", err)
	}

	opts.Log().Log(ctx, level, message, "node_id", data.ID, "node_name", data.Name)

	return map[string]any{
		"message": message,
		"level":   string(cfg.Level),
		"logged":  true,
	}, nil
}

// Run behaves like Init; a log node ending a flow returns its message.
func (n *LogNode) Run(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	out, err := n.Init(ctx, data, input, opts)
	if err != nil {
		return nil, err
	}

	return out.(map[string]any)["message"], nil
}
