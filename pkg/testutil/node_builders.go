// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/updlflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	id := "log_" + uuid.New().String()[:8]
	node := &models.Node{
		ID:       id,
		Position: models.Position{X: 100, Y: 200},
		Data: &models.NodeData{
			ID:       id,
			Name:     "log",
			Label:    "Test Node",
			Category: models.CategoryUtility,
			Inputs:   map[string]any{"message": "test", "level": "info"},
		},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
		n.Data.ID = id
	}
}

// WithName sets the factory name and category of the node.
func WithName(name string, category models.Category) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Name = name
		n.Data.Category = category
	}
}

// WithInputs sets the node inputs.
func WithInputs(inputs map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Inputs = inputs
	}
}

// WithParams sets the declared input parameters.
func WithParams(params ...models.InputParam) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.InputParams = params
	}
}

// WithExposeAs publishes the node output as a flow variable.
func WithExposeAs(name string) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.ExposeAs = name
	}
}

// Connect creates an edge from source to target on the given handle.
func Connect(source, target *models.Node, handle string) *models.Edge {
	return &models.Edge{
		ID:           source.ID + "-" + target.ID,
		Source:       source.ID,
		Target:       target.ID,
		TargetHandle: handle,
	}
}

// CreateTestFlow creates a flow of the given type over nodes and edges.
func CreateTestFlow(flowType models.FlowType, nodes []*models.Node, edges []*models.Edge) *models.Flow {
	return &models.Flow{
		ID:       uuid.New().String(),
		Name:     "Test Flow",
		Type:     flowType,
		FlowData: &models.FlowData{Nodes: nodes, Edges: edges},
	}
}
