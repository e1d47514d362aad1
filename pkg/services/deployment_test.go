package services

import (
	"testing"

	"github.com/dukex/updlflow/pkg/graph"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFlow(t *testing.T) {
	reg := newRegistry()

	tests := []struct {
		name   string
		mutate func(*models.Flow)
		want   error
	}{
		{name: "valid chat flow", mutate: func(*models.Flow) {}},
		{
			name:   "no nodes",
			mutate: func(f *models.Flow) { f.FlowData.Nodes = nil; f.FlowData.Edges = nil },
			want:   ErrNodesRequired,
		},
		{
			name: "unregistered node",
			mutate: func(f *models.Flow) {
				f.FlowData.Nodes = append(f.FlowData.Nodes, node("mystery_0", "mystery", models.CategoryTool))
			},
			want: ErrUnknownNodeType,
		},
		{
			name: "edge to missing node",
			mutate: func(f *models.Flow) {
				f.FlowData.Edges = append(f.FlowData.Edges, &models.Edge{Source: "ghost", Target: "llmChain_0"})
			},
			want: graph.ErrUnknownNode,
		},
		{
			name:   "no ending node for domain",
			mutate: func(f *models.Flow) { f.Type = models.FlowTypeAR },
			want:   ErrNoEndingNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := chatFlow()
			tt.mutate(flow)

			err := ValidateFlow(reg, flow)
			if tt.want == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeployment_DeployAndUndeploy(t *testing.T) {
	p := newPersistence(t)
	svc := NewDeployment(p, newRegistry())
	created := saveFlow(t, p, chatFlow())

	deployed, err := svc.Deploy(t.Context(), created.ID)
	require.NoError(t, err)
	assert.True(t, deployed.Deployed)

	undeployed, err := svc.Undeploy(t.Context(), created.ID)
	require.NoError(t, err)
	assert.False(t, undeployed.Deployed)

	_, err = svc.Deploy(t.Context(), "missing")
	require.ErrorIs(t, err, ErrFlowNotFound)
}

func TestDeployment_RejectsInvalidFlow(t *testing.T) {
	p := newPersistence(t)
	svc := NewDeployment(p, newRegistry())

	flow := chatFlow()
	flow.Type = models.FlowTypeUPDL
	created := saveFlow(t, p, flow)

	_, err := svc.Deploy(t.Context(), created.ID)
	require.ErrorIs(t, err, ErrNoEndingNode)
	assert.True(t, IsValidationError(err))

	stored, err := p.FlowRepository().GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.False(t, stored.Deployed)
}
