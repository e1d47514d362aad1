// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/updlflow/pkg/registry"
)

const httpNodeTimeout = 30 * time.Second

// NewRegistry returns a registry holding every built-in node.
func NewRegistry(log *slog.Logger, openAIKey string) *registry.Registry {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultNodes(registry.NodeDeps{
		OpenAIAPIKey: openAIKey,
		HTTPClient:   &http.Client{Timeout: httpNodeTimeout},
	})

	return reg
}
