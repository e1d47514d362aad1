package engine

import (
	"context"

	"github.com/dukex/updlflow/pkg/graph"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// DispatchParams describes the ending candidates of one invocation.
type DispatchParams struct {
	Invocation *Invocation
	Candidates []*models.Node
	Domain     graph.Domain
}

// Dispatcher selects and runs the node that ends a flow.
type Dispatcher struct {
	rt *Runtime
}

// NewDispatcher creates a dispatcher for flow terminals.
func NewDispatcher(rt *Runtime) *Dispatcher {
	return &Dispatcher{rt: rt}
}

// InitEndingNode picks the last candidate carrying the domain terminal name,
// else the last candidate, and runs a fresh instance of it. It returns the node
// with its resolved data and the flow result.
func (d *Dispatcher) InitEndingNode(ctx context.Context, p DispatchParams) (*models.Node, any, error) {
	const op = "init_ending_node"

	selected, ok := graph.SelectTerminal(p.Candidates, p.Domain)
	if !ok {
		return nil, nil, newError(KindNotFound, op, ErrNoEndingNode)
	}

	inv := p.Invocation
	if inv == nil || inv.Flow == nil {
		return nil, nil, newError(KindValidation, op, ErrInvalidRequest)
	}

	if ctx.Err() != nil {
		return nil, nil, cancelled(ctx, op, selected.ID, selected.Name())
	}

	opts := inv.options(selected)

	ctx, span := otelhelper.StartSpan(ctx, d.rt.Tracer, "node.run",
		attribute.String(otelhelper.FlowIDKey, opts.FlowID),
		attribute.String(otelhelper.NodeIDKey, selected.ID),
		attribute.String(otelhelper.NodeNameKey, selected.Name()),
		attribute.String(otelhelper.NodeCategoryKey, string(selected.Category())),
	)
	defer span.End()

	fail := func(err error) (*models.Node, any, error) {
		otelhelper.SetError(span, err)

		if ctx.Err() != nil {
			return nil, nil, cancelled(ctx, op, selected.ID, selected.Name())
		}

		opts.Logger.ErrorContext(ctx, "Ending node failed", "error", err)

		return nil, nil, nodeError(KindExecution, op, selected.ID, selected.Name(), err)
	}

	data := inv.prepare(d.rt.Resolver, selected)

	if err := d.rt.Registry.ValidateInputs(data.Name, data.Inputs); err != nil {
		return fail(err)
	}

	instance, err := d.rt.Registry.CreateNode(ctx, data.Name)
	if err != nil {
		return fail(err)
	}

	opts.Logger.DebugContext(ctx, "Running ending node", "candidates", len(p.Candidates))

	output, err := instance.Run(ctx, data, opts.Question, opts)
	if err != nil {
		return fail(err)
	}

	data.Outputs = map[string]any{"output": output}
	inv.scope().Outputs[selected.ID] = output

	return &models.Node{ID: selected.ID, Position: selected.Position, Data: data}, output, nil
}
