// Package transform provides a node that reshapes upstream data with a Go template.
package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
	"github.com/dukex/updlflow/pkg/template"
)

// TransformNode renders its expression against the node context.
type TransformNode struct{}

func NewTransformNode() *TransformNode {
	return &TransformNode{}
}

// Init renders the expression. Results that look like JSON, numbers or
// booleans are decoded so downstream references keep their structure.
func (n *TransformNode) Init(_ context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	expression, ok := data.Inputs["expression"].(string)
	if !ok || expression == "" {
		return nil, errors.New("missing required field 'expression'")
	}

	result, err := template.Render(expression, template.NodeContext(input, data, opts))
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	return result, nil
}

// Run returns the transformed value as text.
func (n *TransformNode) Run(ctx context.Context, data *models.NodeData, input string, opts *protocol.Options) (any, error) {
	out, err := n.Init(ctx, data, input, opts)
	if err != nil {
		return nil, err
	}

	if s, ok := out.(string); ok {
		return s, nil
	}

	return template.RenderString("{{ json . }}", out)
}
