package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/dukex/updlflow/pkg/persistence/postgresql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Children first, parents last
	for _, table := range []string{"chat_messages", "variables", "chat_flows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("updlflow_test"),
			postgres.WithUsername("updlflow"),
			postgres.WithPassword("updlflow"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)
		require.NoError(t, p.Close(ctx))
		cancel()
	})

	return p, ctx, databaseURL
}

func testFlow() *models.Flow {
	return &models.Flow{
		Name: "Marker demo",
		Type: models.FlowTypeAR,
		FlowData: &models.FlowData{
			Nodes: []*models.Node{
				{ID: "updlObject_0", Data: &models.NodeData{ID: "updlObject_0", Name: "updlObject", Category: models.CategoryUPDL, Inputs: map[string]any{"type": "box"}}},
				{ID: "arScene_0", Data: &models.NodeData{ID: "arScene_0", Name: "arScene", Category: models.CategoryAR, Inputs: map[string]any{}}},
			},
			Edges: []*models.Edge{{Source: "updlObject_0", Target: "arScene_0", TargetHandle: "objects"}},
		},
		Override:   models.OverrideSettings{Enabled: true, AllowedInputs: []string{"markerValue"}},
		APIKeyHash: "$2a$10$hash",
	}
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, db.Close())
	}()

	for _, table := range []string{"chat_flows", "variables", "chat_messages", "schema_migrations"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}

func TestFlowRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.FlowRepository()

	flow := testFlow()
	require.NoError(t, repo.Save(ctx, flow))
	require.NoError(t, uuid.Validate(flow.ID))

	got, err := repo.GetByID(ctx, flow.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, flow.Name, got.Name)
	assert.Equal(t, models.FlowTypeAR, got.Type)
	assert.Equal(t, flow.APIKeyHash, got.APIKeyHash)
	assert.Equal(t, flow.Override, got.Override)
	require.Len(t, got.FlowData.Edges, 1)
	assert.Equal(t, "objects", got.FlowData.Edges[0].TargetHandle)

	got.Name = "Renamed"
	got.APIKeyHash = ""
	require.NoError(t, repo.Save(ctx, got))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Renamed", all[0].Name)
	assert.Empty(t, all[0].APIKeyHash)

	notFound, err := repo.GetByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, notFound)

	invalid, err := repo.GetByID(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.Nil(t, invalid)

	require.NoError(t, repo.Delete(ctx, flow.ID))
	assert.True(t, persistence.IsFlowNotFound(repo.Delete(ctx, flow.ID)))

	deleted, err := repo.GetByID(ctx, flow.ID)
	require.NoError(t, err)
	assert.Nil(t, deleted)
}

func TestVariableRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.VariableRepository()

	city := &models.Variable{Name: "city", Value: "Lisbon"}
	require.NoError(t, repo.Save(ctx, city))
	assert.Equal(t, "static", city.Type)

	err := repo.Save(ctx, &models.Variable{Name: "city", Value: "Porto"})
	assert.True(t, persistence.IsVariableAlreadyExists(err))

	city.Value = "Porto"
	require.NoError(t, repo.Save(ctx, city))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Porto", all[0].Value)

	require.NoError(t, repo.Delete(ctx, city.ID))
	assert.True(t, persistence.IsVariableNotFound(repo.Delete(ctx, city.ID)))
}

func TestChatMessageRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	flow := testFlow()
	require.NoError(t, p.FlowRepository().Save(ctx, flow))

	repo := p.ChatMessageRepository()
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, repo.Add(ctx, &models.ChatMessage{FlowID: flow.ID, ChatID: "c1", Role: models.RoleUser, Content: "hi", CreatedAt: base}))
	require.NoError(t, repo.Add(ctx, &models.ChatMessage{FlowID: flow.ID, ChatID: "c1", SessionID: "s", Role: models.RoleAPI, Content: "hello", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, repo.Add(ctx, &models.ChatMessage{FlowID: flow.ID, ChatID: "c2", Role: models.RoleUser, Content: "other"}))

	messages, err := repo.GetByChat(ctx, flow.ID, "c1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, "s", messages[1].SessionID)
	assert.Equal(t, models.RoleAPI, messages[1].Role)

	require.NoError(t, repo.DeleteByFlow(ctx, flow.ID))

	messages, err = repo.GetByChat(ctx, flow.ID, "c1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
