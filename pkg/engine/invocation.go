package engine

import (
	"strings"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
	"github.com/dukex/updlflow/pkg/variables"
)

const listInputType = "list"

// Invocation is the request scoped state shared by the executor and the dispatcher.
type Invocation struct {
	Flow *models.FlowData
	// Scope collects node outputs as the flow runs.
	Scope     *variables.Scope
	Overrides map[string]any
	Settings  models.OverrideSettings
	Options   *protocol.Options

	nodeIDs []string
}

func (inv *Invocation) ids() []string {
	if inv.nodeIDs == nil {
		inv.nodeIDs = make([]string, 0, len(inv.Flow.Nodes))
		for _, n := range inv.Flow.Nodes {
			inv.nodeIDs = append(inv.nodeIDs, n.ID)
		}
	}

	return inv.nodeIDs
}

func (inv *Invocation) scope() *variables.Scope {
	if inv.Scope == nil {
		inv.Scope = &variables.Scope{}
	}

	if inv.Scope.Outputs == nil {
		inv.Scope.Outputs = make(map[string]any)
	}

	return inv.Scope
}

// prepare binds edges, applies overrides and resolves references for node.
func (inv *Invocation) prepare(resolver *variables.Resolver, node *models.Node) *models.NodeData {
	data := bindEdges(node, inv.Flow.Edges)
	data = variables.ApplyOverrides(data, inv.Overrides, inv.Settings, inv.ids())

	return resolver.Resolve(data, inv.scope())
}

// options returns a per node copy of the invocation options.
func (inv *Invocation) options(node *models.Node) *protocol.Options {
	opts := protocol.Options{}
	if inv.Options != nil {
		opts = *inv.Options
	}

	opts.Logger = opts.Log().With("node_id", node.ID, "node_name", node.Name())

	return &opts
}

// bindEdges returns a copy of the node data where each input fed by an edge
// references the source output. Inputs already configured are kept, and
// inputs fed by several edges, or declared as lists, collect every reference.
func bindEdges(node *models.Node, edges []*models.Edge) *models.NodeData {
	data := node.Data.Clone()
	if data.Inputs == nil {
		data.Inputs = make(map[string]any)
	}

	bound := make(map[string]bool)

	for _, e := range edges {
		if e.Target != node.ID {
			continue
		}

		name := handleInput(e.TargetHandle)
		if name == "" {
			continue
		}

		ref := "{{" + e.Source + ".data.instance}}"
		current := data.Inputs[name]

		switch {
		case isList(data, name, current):
			list, _ := current.([]any)
			data.Inputs[name] = appendUnique(list, ref)
		case bound[name]:
			data.Inputs[name] = []any{current, ref}
		case current == nil || current == "":
			data.Inputs[name] = ref
		default:
			continue
		}

		bound[name] = true
	}

	return data
}

func isList(data *models.NodeData, name string, current any) bool {
	if _, ok := current.([]any); ok {
		return true
	}

	param, ok := data.Param(name)

	return ok && param.Type == listInputType && (current == nil || current == "")
}

func appendUnique(list []any, ref string) []any {
	for _, item := range list {
		if item == ref {
			return list
		}
	}

	return append(list, ref)
}

// handleInput extracts the input name from a target handle. Handles are
// either the bare input name or "<node>-input-<name>-<type>".
func handleInput(handle string) string {
	if _, rest, ok := strings.Cut(handle, "-input-"); ok {
		name, _, _ := strings.Cut(rest, "-")

		return name
	}

	return handle
}
