package services

import (
	"context"
	"fmt"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
)

type ChatMessage struct {
	persistence persistence.Persistence
}

// NewChatMessage creates a new chat history service.
func NewChatMessage(persistence persistence.Persistence) *ChatMessage {
	return &ChatMessage{
		persistence: persistence,
	}
}

// List returns the messages of one conversation, oldest first.
func (c *ChatMessage) List(ctx context.Context, flowID, chatID string) ([]*models.ChatMessage, error) {
	if chatID == "" {
		return nil, NewValidationError("ListChatMessages", "CHAT_ID_REQUIRED", "chatId is required", ErrInvalidRequest)
	}

	flow, err := c.persistence.FlowRepository().GetByID(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	if flow == nil {
		return nil, persistence.NewFlowError("ListChatMessages", flowID, ErrFlowNotFound)
	}

	messages, err := c.persistence.ChatMessageRepository().GetByChat(ctx, flowID, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}

	if messages == nil {
		messages = []*models.ChatMessage{}
	}

	return messages, nil
}

// Clear removes every conversation of a flow.
func (c *ChatMessage) Clear(ctx context.Context, flowID string) error {
	if err := c.persistence.ChatMessageRepository().DeleteByFlow(ctx, flowID); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}

	return nil
}
