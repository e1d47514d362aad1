package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/dukex/updlflow/pkg/persistence/file"
	"github.com/dukex/updlflow/pkg/registry"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPersistence(t *testing.T) persistence.Persistence {
	t.Helper()

	return file.NewPersistence(t.TempDir())
}

func newRegistry() *registry.Registry {
	reg := registry.NewRegistry(discard())
	reg.RegisterDefaultNodes(registry.NodeDeps{OpenAIAPIKey: "test"})

	return reg
}

func node(id, name string, category models.Category) *models.Node {
	return &models.Node{ID: id, Data: &models.NodeData{Name: name, Category: category, Inputs: map[string]any{}}}
}

func chatFlow() *models.Flow {
	return &models.Flow{
		Name: "Support bot",
		Type: models.FlowTypeChat,
		FlowData: &models.FlowData{
			Nodes: []*models.Node{
				node("chatOpenAI_0", "chatOpenAI", models.CategoryLLM),
				node("promptTemplate_0", "promptTemplate", models.CategoryPrompt),
				node("llmChain_0", "llmChain", models.CategoryChain),
			},
			Edges: []*models.Edge{
				{Source: "chatOpenAI_0", Target: "llmChain_0", TargetHandle: "model"},
				{Source: "promptTemplate_0", Target: "llmChain_0", TargetHandle: "prompt"},
			},
		},
	}
}

func saveFlow(t *testing.T, p persistence.Persistence, flow *models.Flow) *models.Flow {
	t.Helper()

	svc := NewFlow(p, nil, discard())

	created, err := svc.Create(t.Context(), flow)
	require.NoError(t, err)

	return created
}
