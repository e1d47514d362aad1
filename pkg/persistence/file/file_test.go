package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlow(id string) *models.Flow {
	return &models.Flow{
		ID:   id,
		Name: "Flow " + id,
		Type: models.FlowTypeAR,
		FlowData: &models.FlowData{
			Nodes: []*models.Node{{ID: "arScene_0", Data: &models.NodeData{ID: "arScene_0", Name: "arScene", Category: models.CategoryAR, Inputs: map[string]any{}}}},
			Edges: []*models.Edge{},
		},
		APIKeyHash: "$2a$10$hash",
	}
}

func TestNewPersistence(t *testing.T) {
	t.Parallel()

	fp := NewPersistence("/tmp/test").(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)

	fp = NewPersistence("file:///tmp/test").(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.ErrorIs(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()), os.ErrNotExist)
	assert.NoError(t, NewPersistence(t.TempDir()).Close(t.Context()))
}

func TestFlowRepository(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := NewPersistence(dir).FlowRepository()

	require.NoError(t, repo.Save(t.Context(), testFlow("a")))
	time.Sleep(time.Millisecond)
	require.NoError(t, repo.Save(t.Context(), testFlow("b")))

	assert.FileExists(t, filepath.Join(dir, "chatflows", "a.json"))

	got, err := repo.GetByID(t.Context(), "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Flow a", got.Name)
	assert.Equal(t, "$2a$10$hash", got.APIKeyHash)
	assert.False(t, got.CreatedAt.IsZero())
	require.Len(t, got.FlowData.Nodes, 1)
	assert.Equal(t, "arScene", got.FlowData.Nodes[0].Name())

	all, err := repo.GetAll(t.Context())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)

	missing, err := repo.GetByID(t.Context(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	escaped, err := repo.GetByID(t.Context(), "../variables")
	require.NoError(t, err)
	assert.Nil(t, escaped)

	require.NoError(t, repo.Delete(t.Context(), "a"))
	assert.True(t, persistence.IsFlowNotFound(repo.Delete(t.Context(), "a")))
}

func TestFlowRepository_SaveInvalidID(t *testing.T) {
	t.Parallel()

	repo := NewPersistence(t.TempDir()).FlowRepository()
	assert.Error(t, repo.Save(t.Context(), testFlow("../x")))
}

func TestFlowRepository_GetAllEmpty(t *testing.T) {
	t.Parallel()

	all, err := NewPersistence(t.TempDir()).FlowRepository().GetAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestVariableRepository(t *testing.T) {
	t.Parallel()

	repo := NewPersistence(t.TempDir()).VariableRepository()

	city := &models.Variable{Name: "city", Value: "Lisbon", Type: "static"}
	require.NoError(t, repo.Save(t.Context(), city))
	require.NoError(t, repo.Save(t.Context(), &models.Variable{Name: "api", Value: "v1"}))
	assert.NotEmpty(t, city.ID)

	err := repo.Save(t.Context(), &models.Variable{Name: "city", Value: "Porto"})
	assert.True(t, persistence.IsVariableAlreadyExists(err))

	city.Value = "Porto"
	require.NoError(t, repo.Save(t.Context(), city))

	all, err := repo.GetAll(t.Context())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "api", all[0].Name)
	assert.Equal(t, "Porto", all[1].Value)

	require.NoError(t, repo.Delete(t.Context(), city.ID))
	assert.True(t, persistence.IsVariableNotFound(repo.Delete(t.Context(), city.ID)))
}

func TestChatMessageRepository(t *testing.T) {
	t.Parallel()

	repo := NewPersistence(t.TempDir()).ChatMessageRepository()

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, repo.Add(t.Context(), &models.ChatMessage{FlowID: "f", ChatID: "c", Role: models.RoleUser, Content: "hi"}))
		}()
	}

	wg.Wait()

	require.NoError(t, repo.Add(t.Context(), &models.ChatMessage{FlowID: "f", ChatID: "c", Role: models.RoleAPI, Content: "last"}))

	messages, err := repo.GetByChat(t.Context(), "f", "c")
	require.NoError(t, err)
	require.Len(t, messages, 11)
	assert.Equal(t, "last", messages[10].Content)
	assert.NotEmpty(t, messages[0].ID)

	other, err := repo.GetByChat(t.Context(), "f", "other")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, repo.DeleteByFlow(t.Context(), "f"))

	messages, err = repo.GetByChat(t.Context(), "f", "c")
	require.NoError(t, err)
	assert.Empty(t, messages)

	assert.Error(t, repo.Add(t.Context(), &models.ChatMessage{FlowID: "f", ChatID: "../c"}))
}
