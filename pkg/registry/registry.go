// Package registry maps node names to the factories that create them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrNodeNotRegistered indicates no factory is registered under a node name.
	ErrNodeNotRegistered = errors.New("node not registered")

	// ErrInvalidInputs indicates resolved inputs do not satisfy the factory schema.
	ErrInvalidInputs = errors.New("invalid node inputs")
)

type Registry struct {
	logger        *slog.Logger
	mu            sync.RWMutex
	nodeFactories map[string]protocol.NodeFactory
	schemas       map[string]*gojsonschema.Schema
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:        log.With("module", "registry"),
		nodeFactories: make(map[string]protocol.NodeFactory),
		schemas:       make(map[string]*gojsonschema.Schema),
	}
}

// RegisterNode registers a node factory under its ID, replacing any previous one.
func (r *Registry) RegisterNode(nodeFactory protocol.NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := nodeFactory.ID()
	r.nodeFactories[id] = nodeFactory
	delete(r.schemas, id)

	if schema := nodeFactory.Schema(); schema != nil {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
		if err != nil {
			r.logger.Warn("Ignoring invalid node schema", "node", id, "error", err)
		} else {
			r.schemas[id] = compiled
		}
	}

	r.logger.Debug("Registered node", "node", id)
}

// CreateNode creates a fresh node instance for the given node name.
func (r *Registry) CreateNode(ctx context.Context, name string) (protocol.Node, error) {
	factory, ok := r.GetNodeFactory(name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNodeNotRegistered, name)
	}

	return factory.Create(ctx)
}

// GetNodeFactory returns the factory registered under name.
func (r *Registry) GetNodeFactory(name string) (protocol.NodeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.nodeFactories[name]

	return factory, ok
}

// GetAvailableNodes returns every registered factory ordered by ID.
func (r *Registry) GetAvailableNodes() []protocol.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.NodeFactory, 0, len(r.nodeFactories))
	for _, factory := range r.nodeFactories {
		factories = append(factories, factory)
	}

	slices.SortFunc(factories, func(a, b protocol.NodeFactory) int {
		return strings.Compare(a.ID(), b.ID())
	})

	return factories
}

// HealthCheck reports whether any node factory is registered.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	count := len(r.nodeFactories)
	r.mu.RUnlock()

	if count == 0 {
		return "No nodes registered", false
	}

	return fmt.Sprintf("%d nodes registered", count), true
}

// Describe returns the metadata of every registered node.
func (r *Registry) Describe() []models.NodeDescriptor {
	factories := r.GetAvailableNodes()
	descriptors := make([]models.NodeDescriptor, 0, len(factories))

	for _, factory := range factories {
		descriptors = append(descriptors, models.NodeDescriptor{
			Name:        factory.ID(),
			Label:       factory.Name(),
			Category:    factory.Category(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return descriptors
}

// ValidateInputs checks resolved inputs against the schema of the named node.
// Only declared properties are checked. Untyped properties, such as inputs
// holding live instances from upstream nodes, are only checked for presence.
func (r *Registry) ValidateInputs(name string, inputs map[string]any) error {
	factory, ok := r.GetNodeFactory(name)
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrNodeNotRegistered, name)
	}

	r.mu.RLock()
	compiled := r.schemas[name]
	r.mu.RUnlock()

	if compiled == nil {
		return nil
	}

	declared := factory.Schema()
	document := make(map[string]any, len(inputs))

	for key, value := range inputs {
		property, ok := declared.Properties[key]
		switch {
		case !ok || value == nil:
			continue
		case property.Type == "":
			document[key] = true
		default:
			document[key] = value
		}
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInputs, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidInputs, strings.Join(messages, "; "))
	}

	return nil
}
