package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/updlflow/pkg/auth"
	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/dukex/updlflow/pkg/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Flow struct {
	persistence persistence.Persistence
	storage     storage.Storage
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewFlow creates a new flow service. store may be nil when uploads are disabled.
func NewFlow(persistence persistence.Persistence, store storage.Storage, logger *slog.Logger) *Flow {
	return &Flow{
		persistence: persistence,
		storage:     store,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("module", "flow_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (f *Flow) HealthCheck(ctx context.Context) (string, bool) {
	if f.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := f.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every flow, optionally filtered by type.
func (f *Flow) List(ctx context.Context, flowType models.FlowType) ([]*models.Flow, error) {
	flows, err := f.persistence.FlowRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get flows: %w", err)
	}

	if flowType == "" {
		return flows, nil
	}

	filtered := make([]*models.Flow, 0, len(flows))

	for _, flow := range flows {
		if flow.Type == flowType {
			filtered = append(filtered, flow)
		}
	}

	return filtered, nil
}

// FetchByID returns the flow or ErrFlowNotFound.
func (f *Flow) FetchByID(ctx context.Context, id string) (*models.Flow, error) {
	flow, err := f.persistence.FlowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	if flow == nil {
		return nil, persistence.NewFlowError("FetchByID", id, ErrFlowNotFound)
	}

	return flow, nil
}

// Create stores a new flow under a generated ID.
func (f *Flow) Create(ctx context.Context, flow *models.Flow) (*models.Flow, error) {
	if err := f.check("Create", flow); err != nil {
		return nil, err
	}

	flow.ID = uuid.NewString()
	flow.APIKeyHash = ""
	flow.Deployed = false

	if err := f.persistence.FlowRepository().Save(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}

	f.logger.InfoContext(ctx, "Created flow", "flow_id", flow.ID, "type", flow.Type)

	return flow, nil
}

// Update replaces the editable fields of a flow. The API key and deployment
// state are kept.
func (f *Flow) Update(ctx context.Context, id string, flow *models.Flow) (*models.Flow, error) {
	if err := f.check("Update", flow); err != nil {
		return nil, err
	}

	existing, err := f.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = flow.Name
	existing.Type = flow.Type
	existing.FlowData = flow.FlowData
	existing.Override = flow.Override

	if err := f.persistence.FlowRepository().Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}

	return existing, nil
}

// Delete removes the flow with its chat history and stored uploads.
func (f *Flow) Delete(ctx context.Context, id string) error {
	if _, err := f.FetchByID(ctx, id); err != nil {
		return err
	}

	if err := f.persistence.ChatMessageRepository().DeleteByFlow(ctx, id); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}

	if f.storage != nil {
		if err := f.storage.DeleteFlow(ctx, id); err != nil {
			return fmt.Errorf("failed to delete stored files: %w", err)
		}
	}

	if err := f.persistence.FlowRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}

	f.logger.InfoContext(ctx, "Deleted flow", "flow_id", id)

	return nil
}

// RotateAPIKey issues a new key for the flow. The plain key is returned once;
// only its hash is stored.
func (f *Flow) RotateAPIKey(ctx context.Context, id string) (string, error) {
	flow, err := f.FetchByID(ctx, id)
	if err != nil {
		return "", err
	}

	key, hash, err := auth.GenerateAPIKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}

	flow.APIKeyHash = hash

	if err := f.persistence.FlowRepository().Save(ctx, flow); err != nil {
		return "", fmt.Errorf("failed to save api key: %w", err)
	}

	return key, nil
}

// RevokeAPIKey makes the flow callable without a key.
func (f *Flow) RevokeAPIKey(ctx context.Context, id string) error {
	flow, err := f.FetchByID(ctx, id)
	if err != nil {
		return err
	}

	flow.APIKeyHash = ""

	if err := f.persistence.FlowRepository().Save(ctx, flow); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	return nil
}

func (f *Flow) check(op string, flow *models.Flow) error {
	if flow == nil {
		return NewValidationError(op, "FLOW_NIL", "", ErrFlowNil)
	}

	if strings.TrimSpace(flow.Name) == "" {
		return NewValidationError(op, "NAME_REQUIRED", "flow name is required", ErrNameRequired)
	}

	if flow.FlowData == nil {
		flow.FlowData = &models.FlowData{}
	}

	if err := f.validate.Struct(flow); err != nil {
		return NewValidationError(op, "INVALID_FLOW", err.Error(), fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}

	if err := models.ValidateFlowData(flow.FlowData); err != nil {
		return NewValidationError(op, "INVALID_FLOW_DATA", err.Error(), fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}

	return nil
}
