// Package persistence provides the storage abstraction for flows, variables and chat messages.
package persistence

import (
	"context"

	"github.com/dukex/updlflow/pkg/models"
)

type Persistence interface {
	FlowRepository() FlowRepository
	VariableRepository() VariableRepository
	ChatMessageRepository() ChatMessageRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// FlowRepository stores flows. GetByID returns nil without error when the
// flow does not exist.
type FlowRepository interface {
	GetAll(ctx context.Context) ([]*models.Flow, error)
	GetByID(ctx context.Context, id string) (*models.Flow, error)
	Save(ctx context.Context, flow *models.Flow) error
	Delete(ctx context.Context, id string) error
}

type VariableRepository interface {
	GetAll(ctx context.Context) ([]*models.Variable, error)
	Save(ctx context.Context, variable *models.Variable) error
	Delete(ctx context.Context, id string) error
}

// ChatMessageRepository stores conversations. Messages of a chat are
// returned oldest first.
type ChatMessageRepository interface {
	Add(ctx context.Context, message *models.ChatMessage) error
	GetByChat(ctx context.Context, flowID, chatID string) ([]*models.ChatMessage, error)
	DeleteByFlow(ctx context.Context, flowID string) error
}
