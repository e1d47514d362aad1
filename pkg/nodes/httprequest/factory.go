package httprequest

import (
	"context"
	"net/http"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

// HTTPRequestNodeFactory creates HTTPRequestNode instances.
type HTTPRequestNodeFactory struct {
	client *http.Client
}

// NewHTTPRequestNodeFactory creates a new HTTP request node factory. A nil client uses http.DefaultClient.
func NewHTTPRequestNodeFactory(client *http.Client) protocol.NodeFactory {
	return &HTTPRequestNodeFactory{client: client}
}

// Create creates a new HTTPRequestNode instance.
func (f *HTTPRequestNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return NewHTTPRequestNode(f.client), nil
}

// ID returns the factory ID.
func (f *HTTPRequestNodeFactory) ID() string {
	return "httpRequest"
}

// Name returns the factory name.
func (f *HTTPRequestNodeFactory) Name() string {
	return "HTTP Request"
}

// Description returns the factory description.
func (f *HTTPRequestNodeFactory) Description() string {
	return "Performs an HTTP request with retry logic and exposes the response to downstream nodes"
}

// Category returns the node category.
func (f *HTTPRequestNodeFactory) Category() models.Category {
	return models.CategoryTool
}

// Schema returns the JSON schema for HTTP request node inputs.
func (f *HTTPRequestNodeFactory) Schema() *models.JSONSchema {
	minTimeout, maxTimeout := 1.0, 300.0
	minAttempts, maxAttempts := 1.0, 10.0

	return &models.JSONSchema{
		Type:  "object",
		Title: "HTTP Request",
		Properties: map[string]*models.Property{
			"url": {
				Type:        "string",
				Description: "URL to call",
				Format:      "uri",
			},
			"method": {
				Type:    "string",
				Enum:    []any{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS", "get", "post", "put", "delete", "patch", "head", "options"},
				Default: "GET",
			},
			"headers": {
				Type:        "object",
				Description: "Request headers",
			},
			"body": {
				Type:        "string",
				Description: "Request body. Supports Go templates such as {{ .input }}.",
			},
			"timeout": {
				Type:        "integer",
				Description: "Timeout in seconds",
				Minimum:     &minTimeout,
				Maximum:     &maxTimeout,
				Default:     30,
			},
			"retries": {
				Type: "object",
				Properties: map[string]*models.Property{
					"attempts": {Type: "integer", Minimum: &minAttempts, Maximum: &maxAttempts},
					"delay":    {Type: "integer", Description: "Delay between attempts in milliseconds"},
				},
			},
		},
		Required: []string{"url"},
	}
}
