package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNode struct{}

func (stubNode) Init(context.Context, *models.NodeData, string, *protocol.Options) (any, error) {
	return "init", nil
}

func (stubNode) Run(context.Context, *models.NodeData, string, *protocol.Options) (any, error) {
	return "run", nil
}

type stubFactory struct {
	id     string
	schema *models.JSONSchema
}

func (f *stubFactory) Create(context.Context) (protocol.Node, error) { return stubNode{}, nil }
func (f *stubFactory) ID() string                                    { return f.id }
func (f *stubFactory) Name() string                                  { return "Stub " + f.id }
func (f *stubFactory) Description() string                           { return "stub" }
func (f *stubFactory) Category() models.Category                     { return models.CategoryUtility }
func (f *stubFactory) Schema() *models.JSONSchema                    { return f.schema }

func testSchema() *models.JSONSchema {
	limit := 10.0

	return &models.JSONSchema{
		Type: "object",
		Properties: map[string]*models.Property{
			"count":    {Type: "number", Maximum: &limit},
			"mode":     {Type: "string", Enum: []any{"a", "b"}},
			"model":    {Description: "live instance"},
			"optional": {Type: "string"},
		},
		Required: []string{"count", "model"},
	}
}

func TestRegistry_CreateNode(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())
	r.RegisterNode(&stubFactory{id: "stub"})

	node, err := r.CreateNode(t.Context(), "stub")
	require.NoError(t, err)

	out, err := node.Init(t.Context(), &models.NodeData{}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "init", out)

	_, err = r.CreateNode(t.Context(), "missing")
	require.ErrorIs(t, err, ErrNodeNotRegistered)
	assert.ErrorContains(t, err, "'missing'")
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())
	r.RegisterNode(&stubFactory{id: "stub", schema: testSchema()})
	r.RegisterNode(&stubFactory{id: "stub"})

	assert.Len(t, r.GetAvailableNodes(), 1)
	assert.NoError(t, r.ValidateInputs("stub", map[string]any{}))
}

func TestRegistry_ValidateInputs(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())
	r.RegisterNode(&stubFactory{id: "stub", schema: testSchema()})

	live := struct{ ch chan int }{ch: make(chan int)}

	tests := []struct {
		name    string
		inputs  map[string]any
		wantErr bool
	}{
		{name: "valid", inputs: map[string]any{"count": 3, "mode": "a", "model": live}},
		{name: "undeclared inputs ignored", inputs: map[string]any{"count": 1, "model": live, "extra": []int{1}}},
		{name: "nil values skipped", inputs: map[string]any{"count": 1, "model": live, "optional": nil}},
		{name: "above maximum", inputs: map[string]any{"count": 11, "model": live}, wantErr: true},
		{name: "wrong type", inputs: map[string]any{"count": "three", "model": live}, wantErr: true},
		{name: "not in enum", inputs: map[string]any{"count": 1, "mode": "c", "model": live}, wantErr: true},
		{name: "missing required instance", inputs: map[string]any{"count": 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := r.ValidateInputs("stub", tt.inputs)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInputs)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.ErrorIs(t, r.ValidateInputs("missing", nil), ErrNodeNotRegistered)
}

func TestRegistry_Describe(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())
	r.RegisterNode(&stubFactory{id: "b"})
	r.RegisterNode(&stubFactory{id: "a", schema: testSchema()})

	descriptors := r.Describe()
	require.Len(t, descriptors, 2)
	assert.Equal(t, "a", descriptors[0].Name)
	assert.Equal(t, "Stub a", descriptors[0].Label)
	assert.NotNil(t, descriptors[0].Schema)
	assert.Equal(t, "b", descriptors[1].Name)
	assert.Nil(t, descriptors[1].Schema)
}

func TestRegistry_HealthCheck(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())

	msg, ok := r.HealthCheck()
	assert.False(t, ok)
	assert.Equal(t, "No nodes registered", msg)

	r.RegisterNode(&stubFactory{id: "a"})
	r.RegisterNode(&stubFactory{id: "b"})

	msg, ok = r.HealthCheck()
	assert.True(t, ok)
	assert.Equal(t, "2 nodes registered", msg)
}
