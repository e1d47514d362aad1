package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/updlflow/pkg/graph"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/dukex/updlflow/pkg/registry"
)

// Deployment checks flows against the node registry and toggles whether
// they are deployed.
type Deployment struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

// NewDeployment creates a new deployment service.
func NewDeployment(persistence persistence.Persistence, registry *registry.Registry) *Deployment {
	return &Deployment{
		persistence: persistence,
		registry:    registry,
	}
}

// Deploy validates the flow and marks it deployed.
func (d *Deployment) Deploy(ctx context.Context, flowID string) (*models.Flow, error) {
	flow, err := d.persistence.FlowRepository().GetByID(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	if flow == nil {
		return nil, persistence.NewFlowError("Deploy", flowID, ErrFlowNotFound)
	}

	if err := ValidateFlow(d.registry, flow); err != nil {
		return nil, fmt.Errorf("flow validation failed: %w", err)
	}

	flow.Deployed = true

	if err := d.persistence.FlowRepository().Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to deploy flow: %w", err)
	}

	return flow, nil
}

// Undeploy clears the deployed flag without validating.
func (d *Deployment) Undeploy(ctx context.Context, flowID string) (*models.Flow, error) {
	flow, err := d.persistence.FlowRepository().GetByID(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	if flow == nil {
		return nil, persistence.NewFlowError("Undeploy", flowID, ErrFlowNotFound)
	}

	flow.Deployed = false

	if err := d.persistence.FlowRepository().Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to undeploy flow: %w", err)
	}

	return flow, nil
}

// ValidateFlow reports every problem that would stop the flow from running:
// unknown node types, broken edges, cycles and a missing ending node.
func ValidateFlow(reg *registry.Registry, flow *models.Flow) error {
	if flow == nil {
		return ErrFlowNil
	}

	if flow.Name == "" {
		return ErrNameRequired
	}

	if flow.FlowData == nil || len(flow.FlowData.Nodes) == 0 {
		return ErrNodesRequired
	}

	data := flow.FlowData
	if err := models.ValidateFlowData(data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var errs []error

	if reg != nil {
		for _, n := range data.Nodes {
			if _, ok := reg.GetNodeFactory(n.Name()); !ok {
				errs = append(errs, fmt.Errorf("%w: node %s uses %q", ErrUnknownNodeType, n.ID, n.Name()))
			}
		}
	}

	forward, err := graph.ConstructGraphs(data.Nodes, data.Edges, false)
	if err != nil {
		return errors.Join(append(errs, fmt.Errorf("%w: %w", ErrInvalidRequest, err))...)
	}

	reverse, err := graph.ConstructGraphs(data.Nodes, data.Edges, true)
	if err != nil {
		return errors.Join(append(errs, fmt.Errorf("%w: %w", ErrInvalidRequest, err))...)
	}

	domain := graph.DomainFor(flow.Type)

	candidates := graph.GetEndingNodes(forward.DependencyCounts, forward, data.Nodes, domain)
	if len(candidates) == 0 {
		return errors.Join(append(errs, fmt.Errorf("%w: domain %s", ErrNoEndingNode, domain.Name))...)
	}

	ids := make([]string, 0, len(candidates))
	for _, n := range candidates {
		ids = append(ids, n.ID)
	}

	if _, err := graph.UnionStartingNodes(reverse, ids); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}

	return errors.Join(errs...)
}
