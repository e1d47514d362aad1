// Package graph builds adjacency over flow nodes and resolves terminal and ancestor nodes.
package graph

import (
	"errors"
	"fmt"

	"github.com/dukex/updlflow/pkg/models"
)

var (
	// ErrUnknownNode indicates an edge endpoint that is not part of the node list.
	ErrUnknownNode = errors.New("edge references unknown node")

	// ErrDuplicateNode indicates two nodes sharing the same id.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrCycleDetected indicates the reverse walk did not terminate.
	ErrCycleDetected = errors.New("cycle detected in flow graph")
)

// IsGraphError reports whether err was produced while validating a graph.
func IsGraphError(err error) bool {
	return errors.Is(err, ErrUnknownNode) ||
		errors.Is(err, ErrDuplicateNode) ||
		errors.Is(err, ErrCycleDetected)
}

// Graph is the adjacency of a flow together with per-node dependency counts.
type Graph struct {
	// Adjacency maps a node id to its dependents, or to its dependencies when Reversed.
	Adjacency map[string][]string
	// DependencyCounts is the number of incoming edges of each node.
	DependencyCounts map[string]int
	Reversed         bool
}

// Neighbors returns the adjacency list of id.
func (g *Graph) Neighbors(id string) []string {
	return g.Adjacency[id]
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.Adjacency)
}

// ConstructGraphs builds the forward (or reverse) adjacency of nodes and edges.
// Edges pointing at nodes outside the list are rejected.
func ConstructGraphs(nodes []*models.Node, edges []*models.Edge, reversed bool) (*Graph, error) {
	g := &Graph{
		Adjacency:        make(map[string][]string, len(nodes)),
		DependencyCounts: make(map[string]int, len(nodes)),
		Reversed:         reversed,
	}

	for _, n := range nodes {
		if _, exists := g.Adjacency[n.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}

		g.Adjacency[n.ID] = []string{}
		g.DependencyCounts[n.ID] = 0
	}

	for _, e := range edges {
		if _, ok := g.Adjacency[e.Source]; !ok {
			return nil, fmt.Errorf("%w: source %q of edge %s -> %s", ErrUnknownNode, e.Source, e.Source, e.Target)
		}

		if _, ok := g.Adjacency[e.Target]; !ok {
			return nil, fmt.Errorf("%w: target %q of edge %s -> %s", ErrUnknownNode, e.Target, e.Source, e.Target)
		}

		if reversed {
			g.Adjacency[e.Target] = append(g.Adjacency[e.Target], e.Source)
		} else {
			g.Adjacency[e.Source] = append(g.Adjacency[e.Source], e.Target)
		}

		g.DependencyCounts[e.Target]++
	}

	return g, nil
}
