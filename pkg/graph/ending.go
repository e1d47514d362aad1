package graph

import (
	"github.com/dukex/updlflow/pkg/models"
)

// Domain selects which terminal nodes may end a flow.
type Domain struct {
	Name string
	// Match accepts nodes of the domain.
	Match func(*models.Node) bool
	// Terminal is the preferred node name, empty when the domain has none.
	Terminal string
}

// Prefer reports whether n carries the domain's preferred terminal name.
func (d Domain) Prefer(n *models.Node) bool {
	return d.Terminal != "" && n.Name() == d.Terminal
}

var (
	// TextDomain ends a flow on a node that produces text.
	TextDomain = Domain{
		Name: "text",
		Match: func(n *models.Node) bool {
			return n.Category().IsTextProducer()
		},
	}

	// ARDomain ends a flow on an AR scene node.
	ARDomain = Domain{
		Name: "ar",
		Match: func(n *models.Node) bool {
			return n.Category() == models.CategoryAR
		},
		Terminal: "arScene",
	}

	// SceneDomain ends a flow on a generic UPDL scene node.
	SceneDomain = Domain{
		Name: "scene",
		Match: func(n *models.Node) bool {
			return n.Category() == models.CategoryUPDL
		},
		Terminal: "scene",
	}
)

// DomainFor returns the terminal domain for a flow type.
func DomainFor(flowType models.FlowType) Domain {
	switch flowType {
	case models.FlowTypeAR:
		return ARDomain
	case models.FlowTypeUPDL:
		return SceneDomain
	default:
		return TextDomain
	}
}

// GetEndingNodes returns the nodes that may end the flow for domain, in node order.
// A node qualifies when it is the only node of the graph, or when it has
// producers and no consumers. It never fails; no match yields an empty slice.
func GetEndingNodes(counts map[string]int, forward *Graph, nodes []*models.Node, domain Domain) []*models.Node {
	candidates := make([]*models.Node, 0)

	for _, n := range nodes {
		if n == nil || n.Data == nil {
			continue
		}

		single := len(nodes) == 1
		leaf := len(forward.Neighbors(n.ID)) == 0 && counts[n.ID] > 0

		if !single && !leaf {
			continue
		}

		if domain.Match != nil && !domain.Match(n) {
			continue
		}

		candidates = append(candidates, n)
	}

	preferred := make([]*models.Node, 0, len(candidates))

	for _, n := range candidates {
		if domain.Prefer(n) {
			preferred = append(preferred, n)
		}
	}

	if len(preferred) > 0 {
		return preferred
	}

	return candidates
}

// SelectTerminal picks the node to dispatch: the last candidate carrying the
// domain's terminal name, otherwise the last candidate.
func SelectTerminal(candidates []*models.Node, domain Domain) (*models.Node, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	for i := len(candidates) - 1; i >= 0; i-- {
		if domain.Prefer(candidates[i]) {
			return candidates[i], true
		}
	}

	return candidates[len(candidates)-1], true
}
