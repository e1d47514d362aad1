package file

import (
	"context"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/google/uuid"
)

// ChatMessageRepository stores one file per chat under the flow directory.
type ChatMessageRepository struct {
	root string
	mu   sync.Mutex
}

func NewChatMessageRepository(root string) *ChatMessageRepository {
	return &ChatMessageRepository{root: root}
}

func (cr *ChatMessageRepository) flowDir(flowID string) string {
	return path.Join(cr.root, "chat_messages", flowID)
}

func (cr *ChatMessageRepository) read(flowID, chatID string) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage

	_, err := readJSON(path.Join(cr.flowDir(flowID), chatID+".json"), &messages)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat %s: %w", chatID, err)
	}

	return messages, nil
}

// Add appends a message to its chat.
func (cr *ChatMessageRepository) Add(_ context.Context, message *models.ChatMessage) error {
	if err := safeName(message.FlowID); err != nil {
		return err
	}

	if err := safeName(message.ChatID); err != nil {
		return err
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()

	messages, err := cr.read(message.FlowID, message.ChatID)
	if err != nil {
		return err
	}

	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	messages = append(messages, message)

	return writeJSON(path.Join(cr.flowDir(message.FlowID), message.ChatID+".json"), messages)
}

// GetByChat returns the messages of a chat in insertion order.
func (cr *ChatMessageRepository) GetByChat(_ context.Context, flowID, chatID string) ([]*models.ChatMessage, error) {
	if safeName(flowID) != nil || safeName(chatID) != nil {
		return []*models.ChatMessage{}, nil
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()

	messages, err := cr.read(flowID, chatID)
	if err != nil {
		return nil, err
	}

	if messages == nil {
		messages = []*models.ChatMessage{}
	}

	return messages, nil
}

func (cr *ChatMessageRepository) DeleteByFlow(_ context.Context, flowID string) error {
	if err := safeName(flowID); err != nil {
		return err
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()

	if err := os.RemoveAll(cr.flowDir(flowID)); err != nil {
		return fmt.Errorf("failed to delete chats of flow %s: %w", flowID, err)
	}

	return nil
}
