package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/google/uuid"
)

type ChatMessageRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewChatMessageRepository(db *sql.DB, logger *slog.Logger) *ChatMessageRepository {
	return &ChatMessageRepository{db: db, logger: logger}
}

func (r *ChatMessageRepository) Add(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, chat_flow_id, chat_id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)
	`, message.ID, message.FlowID, message.ChatID, message.SessionID, message.Role, message.Content, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}

	return nil
}

func (r *ChatMessageRepository) GetByChat(ctx context.Context, flowID, chatID string) ([]*models.ChatMessage, error) {
	messages := make([]*models.ChatMessage, 0)

	if uuid.Validate(flowID) != nil {
		return messages, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_flow_id, chat_id, COALESCE(session_id, ''), role, content, created_at
		FROM chat_messages
		WHERE chat_flow_id = $1 AND chat_id = $2
		ORDER BY created_at, id
	`, flowID, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer closeRows(ctx, r.logger, rows)

	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.FlowID, &m.ChatID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}

		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}

	return messages, nil
}

func (r *ChatMessageRepository) DeleteByFlow(ctx context.Context, flowID string) error {
	if uuid.Validate(flowID) != nil {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE chat_flow_id = $1`, flowID); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}

	return nil
}
