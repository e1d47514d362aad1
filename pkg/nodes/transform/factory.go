package transform

import (
	"context"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
)

// TransformNodeFactory creates TransformNode instances.
type TransformNodeFactory struct{}

// Create creates a new TransformNode instance.
func (f *TransformNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return NewTransformNode(), nil
}

// ID returns the factory ID.
func (f *TransformNodeFactory) ID() string {
	return "transform"
}

// Name returns the factory name.
func (f *TransformNodeFactory) Name() string {
	return "Transform"
}

// Description returns the factory description.
func (f *TransformNodeFactory) Description() string {
	return "Transforms data using Go templates with access to the node inputs and flow context"
}

func (f *TransformNodeFactory) Category() models.Category {
	return models.CategoryUtility
}

// Schema returns the JSON schema for Transform node inputs.
func (f *TransformNodeFactory) Schema() *models.JSONSchema {
	return &models.JSONSchema{
		Type:  "object",
		Title: "Transform",
		Properties: map[string]*models.Property{
			"expression": {
				Type:        "string",
				Description: `Go template, e.g. {"name": "{{ .inputs.name | upper }}", "chat": "{{ .flow.chat_id }}"}`,
			},
			"value": {Description: "Upstream value available as {{ .inputs.value }}"},
		},
		Required: []string{"expression"},
	}
}

// NewTransformNodeFactory creates a new factory instance.
func NewTransformNodeFactory() protocol.NodeFactory {
	return &TransformNodeFactory{}
}
