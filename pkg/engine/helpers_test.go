package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukex/updlflow/pkg/eventbus"
	"github.com/dukex/updlflow/pkg/events"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
	"github.com/dukex/updlflow/pkg/registry"
	"github.com/dukex/updlflow/pkg/testutil"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

type nodeFunc func(ctx context.Context, data *models.NodeData, input string) (any, error)

// stubFactory creates nodes recording their calls. Without init, Init appends
// the lowercased node id to its "input" input. Without run, Run returns the
// "input" input.
type stubFactory struct {
	id       string
	category models.Category
	rec      *recorder
	init     nodeFunc
	run      nodeFunc
}

func (f *stubFactory) Create(context.Context) (protocol.Node, error) {
	return &stubNode{factory: f}, nil
}

func (f *stubFactory) ID() string { return f.id }
func (f *stubFactory) Name() string { return f.id }
func (f *stubFactory) Description() string { return "stub " + f.id }
func (f *stubFactory) Category() models.Category { return f.category }
func (f *stubFactory) Schema() *models.JSONSchema { return nil }

type stubNode struct {
	factory *stubFactory
}

func (n *stubNode) Init(ctx context.Context, data *models.NodeData, input string, _ *protocol.Options) (any, error) {
	n.factory.rec.add("init:" + data.ID)

	if n.factory.init != nil {
		return n.factory.init(ctx, data, input)
	}

	upstream, _ := data.Inputs["input"].(string)

	return upstream + strings.ToLower(data.ID), nil
}

func (n *stubNode) Run(ctx context.Context, data *models.NodeData, input string, _ *protocol.Options) (any, error) {
	n.factory.rec.add("run:" + data.ID)

	if n.factory.run != nil {
		return n.factory.run(ctx, data, input)
	}

	return data.Inputs["input"], nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (s *recordingSink) Emit(_ context.Context, _ string, event eventbus.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
}

func (s *recordingSink) types() []events.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make([]events.EventType, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.GetType())
	}

	return types
}

func (s *recordingSink) last() eventbus.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) == 0 {
		return nil
	}

	return s.events[len(s.events)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestRuntime(factories ...*stubFactory) *Runtime {
	reg := registry.NewRegistry(discardLogger())
	for _, f := range factories {
		reg.RegisterNode(f)
	}

	return NewRuntime(reg, discardLogger())
}

func node(id, name string, category models.Category, inputs map[string]any) *models.Node {
	if inputs == nil {
		inputs = map[string]any{}
	}

	return testutil.CreateTestNode(
		testutil.WithID(id),
		testutil.WithName(name, category),
		testutil.WithInputs(inputs),
	)
}

func edge(source, target, handle string) *models.Edge {
	return &models.Edge{Source: source, Target: target, TargetHandle: handle}
}
