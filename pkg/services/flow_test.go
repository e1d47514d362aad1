package services

import (
	"testing"

	"github.com/dukex/updlflow/pkg/auth"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlow_HealthCheck(t *testing.T) {
	svc := NewFlow(newPersistence(t), nil, discard())

	msg, ok := svc.HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", msg)

	msg, ok = (&Flow{}).HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer not initialized", msg)
}

func TestFlow_Create(t *testing.T) {
	p := newPersistence(t)
	svc := NewFlow(p, nil, discard())

	input := chatFlow()
	input.ID = "client-chosen"
	input.APIKeyHash = "ignored"
	input.Deployed = true

	created, err := svc.Create(t.Context(), input)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "client-chosen", created.ID)
	assert.Empty(t, created.APIKeyHash)
	assert.False(t, created.Deployed)
	assert.False(t, created.CreatedAt.IsZero())

	// Node data ids are filled from the node ids.
	assert.Equal(t, "llmChain_0", created.FlowData.Nodes[2].Data.ID)

	fetched, err := svc.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Support bot", fetched.Name)
}

func TestFlow_CreateValidation(t *testing.T) {
	svc := NewFlow(newPersistence(t), nil, discard())

	tests := []struct {
		name string
		flow *models.Flow
		want error
	}{
		{name: "nil flow", flow: nil, want: ErrFlowNil},
		{name: "blank name", flow: &models.Flow{Name: "  ", Type: models.FlowTypeChat}, want: ErrNameRequired},
		{name: "bad type", flow: &models.Flow{Name: "x", Type: "SLIDES"}, want: ErrInvalidRequest},
		{
			name: "unknown category",
			flow: &models.Flow{Name: "x", Type: models.FlowTypeChat, FlowData: &models.FlowData{
				Nodes: []*models.Node{node("a", "log", "widget")},
			}},
			want: ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(t.Context(), tt.flow)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestFlow_List(t *testing.T) {
	p := newPersistence(t)
	svc := NewFlow(p, nil, discard())

	saveFlow(t, p, chatFlow())

	ar := chatFlow()
	ar.Name = "Gallery"
	ar.Type = models.FlowTypeAR
	saveFlow(t, p, ar)

	all, err := svc.List(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyAR, err := svc.List(t.Context(), models.FlowTypeAR)
	require.NoError(t, err)
	require.Len(t, onlyAR, 1)
	assert.Equal(t, "Gallery", onlyAR[0].Name)
}

func TestFlow_UpdateKeepsKeyAndDeployment(t *testing.T) {
	p := newPersistence(t)
	svc := NewFlow(p, nil, discard())
	created := saveFlow(t, p, chatFlow())

	_, err := svc.RotateAPIKey(t.Context(), created.ID)
	require.NoError(t, err)

	changed := chatFlow()
	changed.Name = "Renamed"
	changed.Override = models.OverrideSettings{Enabled: true}

	updated, err := svc.Update(t.Context(), created.ID, changed)
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.Override.Enabled)
	assert.True(t, updated.RequiresAPIKey())

	_, err = svc.Update(t.Context(), "missing", chatFlow())
	require.ErrorIs(t, err, ErrFlowNotFound)
	assert.True(t, IsNotFoundError(err))
}

func TestFlow_RotateAndRevokeAPIKey(t *testing.T) {
	p := newPersistence(t)
	svc := NewFlow(p, nil, discard())
	created := saveFlow(t, p, chatFlow())

	first, err := svc.RotateAPIKey(t.Context(), created.ID)
	require.NoError(t, err)

	second, err := svc.RotateAPIKey(t.Context(), created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	flow, err := svc.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	require.NoError(t, auth.VerifyAPIKey(flow.APIKeyHash, second))
	require.ErrorIs(t, auth.VerifyAPIKey(flow.APIKeyHash, first), auth.ErrInvalidAPIKey)

	require.NoError(t, svc.RevokeAPIKey(t.Context(), created.ID))

	flow, err = svc.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.False(t, flow.RequiresAPIKey())

	_, err = svc.RotateAPIKey(t.Context(), "missing")
	require.ErrorIs(t, err, ErrFlowNotFound)
}

func TestFlow_DeleteRemovesHistoryAndFiles(t *testing.T) {
	p := newPersistence(t)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := NewFlow(p, files, discard())
	created := saveFlow(t, p, chatFlow())

	require.NoError(t, p.ChatMessageRepository().Add(t.Context(), &models.ChatMessage{
		FlowID: created.ID, ChatID: "chat-1", Role: models.RoleUser, Content: "hello",
	}))

	_, err = files.Save(t.Context(), created.ID, "chat-1", "notes.txt", []byte("notes"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(t.Context(), created.ID))

	_, err = svc.FetchByID(t.Context(), created.ID)
	require.ErrorIs(t, err, ErrFlowNotFound)

	messages, err := p.ChatMessageRepository().GetByChat(t.Context(), created.ID, "chat-1")
	require.NoError(t, err)
	assert.Empty(t, messages)

	_, err = files.Read(t.Context(), created.ID, "chat-1", "notes.txt")
	require.Error(t, err)

	require.ErrorIs(t, svc.Delete(t.Context(), created.ID), ErrFlowNotFound)
}
