package graph

import (
	"fmt"
	"slices"
)

// StartingNodes is the set of ancestors of one or more terminal nodes.
type StartingNodes struct {
	// IDs lists each reached node once, in discovery order. Terminals are included.
	IDs []string
	// Depths is the distance of each node from its terminal. Producers are deeper.
	Depths map[string]int
}

// Contains reports whether id was reached.
func (s *StartingNodes) Contains(id string) bool {
	_, ok := s.Depths[id]

	return ok
}

// GetStartingNodes walks the reverse graph breadth first from terminalID.
// When a longer path reaches an already seen node its depth is raised and
// propagated again, so a producer is always deeper than each of its consumers.
func GetStartingNodes(reverse *Graph, terminalID string) (*StartingNodes, error) {
	if _, ok := reverse.Adjacency[terminalID]; !ok {
		return nil, fmt.Errorf("%w: terminal %q", ErrUnknownNode, terminalID)
	}

	result := &StartingNodes{
		IDs:    []string{terminalID},
		Depths: map[string]int{terminalID: 0},
	}

	limit := reverse.Len()
	queue := []string{terminalID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		next := result.Depths[current] + 1

		for _, parent := range reverse.Neighbors(current) {
			depth, seen := result.Depths[parent]
			if seen && depth >= next {
				continue
			}

			if next >= limit {
				return nil, fmt.Errorf("%w: reached from %q", ErrCycleDetected, terminalID)
			}

			if !seen {
				result.IDs = append(result.IDs, parent)
			}

			result.Depths[parent] = next
			queue = append(queue, parent)
		}
	}

	return result, nil
}

// UnionStartingNodes merges the ancestors of every terminal. The larger depth wins.
func UnionStartingNodes(reverse *Graph, terminalIDs []string) (*StartingNodes, error) {
	union := &StartingNodes{
		IDs:    []string{},
		Depths: map[string]int{},
	}

	for _, id := range terminalIDs {
		starting, err := GetStartingNodes(reverse, id)
		if err != nil {
			return nil, err
		}

		for _, nodeID := range starting.IDs {
			depth := starting.Depths[nodeID]

			current, seen := union.Depths[nodeID]
			if !seen {
				union.IDs = append(union.IDs, nodeID)
			}

			if !seen || depth > current {
				union.Depths[nodeID] = depth
			}
		}
	}

	return union, nil
}

// Sorted returns the reached ids ordered deepest first. Ties keep the order of
// position, which maps a node id to its index in the flow's node list.
func (s *StartingNodes) Sorted(position map[string]int) []string {
	ids := slices.Clone(s.IDs)

	slices.SortStableFunc(ids, func(a, b string) int {
		if s.Depths[a] != s.Depths[b] {
			return s.Depths[b] - s.Depths[a]
		}

		return position[a] - position[b]
	})

	return ids
}
