package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/google/uuid"
)

// FlowRepository handles flow-related database operations.
type FlowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(db *sql.DB, logger *slog.Logger) *FlowRepository {
	return &FlowRepository{db: db, logger: logger}
}

const flowColumns = `
			id
		  , name
		  , type
		  , flow_data
		  , api_key_hash
		  , override_config
		  , deployed
		  , created_at
		  , updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanFlow(row scanner) (*models.Flow, error) {
	var (
		flow         models.Flow
		flowData     []byte
		overrideJSON []byte
		apiKeyHash   sql.NullString
	)

	err := row.Scan(
		&flow.ID,
		&flow.Name,
		&flow.Type,
		&flowData,
		&apiKeyHash,
		&overrideJSON,
		&flow.Deployed,
		&flow.CreatedAt,
		&flow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	flow.APIKeyHash = apiKeyHash.String

	if err := json.Unmarshal(flowData, &flow.FlowData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow data: %w", err)
	}

	if err := json.Unmarshal(overrideJSON, &flow.Override); err != nil {
		return nil, fmt.Errorf("failed to unmarshal override config: %w", err)
	}

	return &flow, nil
}

// GetAll returns all flows from the database, newest first.
func (r *FlowRepository) GetAll(ctx context.Context) ([]*models.Flow, error) {
	query := `SELECT` + flowColumns + `
		FROM chat_flows
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}
	defer closeRows(ctx, r.logger, rows)

	flows := make([]*models.Flow, 0)

	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}

		flows = append(flows, flow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flows: %w", err)
	}

	return flows, nil
}

func (r *FlowRepository) GetByID(ctx context.Context, id string) (*models.Flow, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}

	query := `SELECT` + flowColumns + `
		FROM chat_flows
		WHERE id = $1 AND deleted_at IS NULL
	`

	flow, err := scanFlow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan flow: %w", err)
	}

	return flow, nil
}

// Save inserts or updates a flow.
func (r *FlowRepository) Save(ctx context.Context, flow *models.Flow) error {
	now := time.Now().UTC()

	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	if flow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate flow ID: %w", err)
		}

		flow.ID = id.String()
	}

	flowData, err := json.Marshal(flow.FlowData)
	if err != nil {
		return fmt.Errorf("failed to marshal flow data: %w", err)
	}

	overrideJSON, err := json.Marshal(flow.Override)
	if err != nil {
		return fmt.Errorf("failed to marshal override config: %w", err)
	}

	query := `
		INSERT INTO chat_flows (id, name, type, flow_data, api_key_hash, override_config, deployed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			flow_data = EXCLUDED.flow_data,
			api_key_hash = EXCLUDED.api_key_hash,
			override_config = EXCLUDED.override_config,
			deployed = EXCLUDED.deployed,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.ExecContext(ctx, query,
		flow.ID,
		flow.Name,
		flow.Type,
		flowData,
		flow.APIKeyHash,
		overrideJSON,
		flow.Deployed,
		flow.CreatedAt,
		flow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	return nil
}

// Delete soft deletes a flow by setting deleted_at timestamp.
func (r *FlowRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE chat_flows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
	}

	return nil
}
