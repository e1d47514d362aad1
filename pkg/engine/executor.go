package engine

import (
	"context"
	"time"

	"github.com/dukex/updlflow/pkg/events"
	"github.com/dukex/updlflow/pkg/graph"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// BuildFlowParams describes the ancestors to execute for one invocation.
type BuildFlowParams struct {
	Invocation *Invocation
	Starting   *graph.StartingNodes
	// Terminals are the ending candidates. They are left to the dispatcher.
	Terminals []*models.Node
}

// Executor runs the ancestors of the ending nodes, producers first.
type Executor struct {
	rt *Runtime
}

// NewExecutor creates an executor running the non-terminal nodes of a flow
// against the shared runtime.
func NewExecutor(rt *Runtime) *Executor {
	return &Executor{rt: rt}
}

// BuildFlow executes every starting node except the terminals in descending
// depth order, ties broken by node order. Each output is recorded in the
// invocation scope before the next node resolves its inputs. The first
// failure aborts the flow.
func (e *Executor) BuildFlow(ctx context.Context, p BuildFlowParams) ([]*models.ExecutedNode, error) {
	const op = "build_flow"

	inv := p.Invocation
	if inv == nil || inv.Flow == nil || p.Starting == nil {
		return nil, newError(KindValidation, op, ErrInvalidRequest)
	}

	position := make(map[string]int, len(inv.Flow.Nodes))
	for i, n := range inv.Flow.Nodes {
		position[n.ID] = i
	}

	terminal := make(map[string]bool, len(p.Terminals))
	for _, n := range p.Terminals {
		terminal[n.ID] = true
	}

	scope := inv.scope()
	executed := make([]*models.ExecutedNode, 0, len(p.Starting.IDs))

	for _, id := range p.Starting.Sorted(position) {
		if terminal[id] {
			continue
		}

		node, ok := inv.Flow.NodeByID(id)
		if !ok {
			return nil, nodeError(KindValidation, op, id, "", graph.ErrUnknownNode)
		}

		if ctx.Err() != nil {
			return nil, cancelled(ctx, op, node.ID, node.Name())
		}

		depth := p.Starting.Depths[id]

		output, data, err := e.execute(ctx, inv, node, depth)
		if err != nil {
			return nil, err
		}

		scope.Outputs[node.ID] = output
		executed = append(executed, &models.ExecutedNode{
			Node:   &models.Node{ID: node.ID, Position: node.Position, Data: data},
			Output: output,
			Depth:  depth,
		})
	}

	return executed, nil
}

func (e *Executor) execute(ctx context.Context, inv *Invocation, node *models.Node, depth int) (any, *models.NodeData, error) {
	const op = "execute_node"

	opts := inv.options(node)
	logger := opts.Logger
	start := time.Now()

	ctx, span := otelhelper.StartSpan(ctx, e.rt.Tracer, "node.init",
		attribute.String(otelhelper.FlowIDKey, opts.FlowID),
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeNameKey, node.Name()),
		attribute.String(otelhelper.NodeCategoryKey, string(node.Category())),
		attribute.Int(otelhelper.NodeDepthKey, depth),
	)
	defer span.End()

	fail := func(err error) (any, *models.NodeData, error) {
		otelhelper.SetError(span, err)

		if ctx.Err() != nil {
			return nil, nil, cancelled(ctx, op, node.ID, node.Name())
		}

		logger.ErrorContext(ctx, "Node execution failed", "error", err)

		return nil, nil, nodeError(KindExecution, op, node.ID, node.Name(), err)
	}

	data := inv.prepare(e.rt.Resolver, node)

	if err := e.rt.Registry.ValidateInputs(data.Name, data.Inputs); err != nil {
		return fail(err)
	}

	instance, err := e.rt.Registry.CreateNode(ctx, data.Name)
	if err != nil {
		return fail(err)
	}

	logger.DebugContext(ctx, "Initializing node", "depth", depth)

	output, err := instance.Init(ctx, data, opts.Question, opts)
	if err != nil {
		return fail(err)
	}

	data.Outputs = map[string]any{"output": output}
	duration := time.Since(start)

	logger.InfoContext(ctx, "Node executed", "depth", depth, "duration", duration)

	e.rt.Telemetry.Emit(ctx, opts.FlowID, events.NodeExecuted{
		BaseEvent:  events.NewBaseEvent(events.NodeExecutedEvent, opts.FlowID, opts.ChatID),
		NodeID:     node.ID,
		NodeName:   node.Name(),
		Category:   string(node.Category()),
		Depth:      depth,
		DurationMs: duration.Milliseconds(),
	})

	return output, data, nil
}
