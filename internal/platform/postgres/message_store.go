package postgres

import (
	"context"
	"fmt"

	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/dmoretti/agentq-api/internal/platform/logger"
	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/google/uuid"
)

// PostgresMessageStore implements the store.MessageStore interface
// using PostgreSQL. Messages are append-only; there are no update or
// delete paths.
type PostgresMessageStore struct {
	db store.DBTX
}

// NewPostgresMessageStore creates a new PostgresMessageStore.
func NewPostgresMessageStore(db store.DBTX) *PostgresMessageStore {
	return &PostgresMessageStore{
		db: db,
	}
}

// Ensure PostgresMessageStore implements store.MessageStore interface
var _ store.MessageStore = (*PostgresMessageStore)(nil)

// Create implements store.MessageStore.Create
func (s *PostgresMessageStore) Create(ctx context.Context, msg *domain.Message) error {
	log := logger.FromContext(ctx)

	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO messages (id, conversation_id, role, content, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.Timestamp,
	)
	if err != nil {
		log.Error("failed to save message",
			"message_id", msg.ID,
			"conversation_id", msg.ConversationID,
			"error", err)
		return MapError(err, store.ErrMessageNotFound)
	}

	return nil
}

// ListByConversation implements store.MessageStore.ListByConversation
func (s *PostgresMessageStore) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*domain.Message, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, conversation_id, role, content, timestamp
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		log.Error("failed to query messages",
			"conversation_id", conversationID,
			"error", err)
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.Timestamp,
		); err != nil {
			log.Error("failed to scan message row",
				"conversation_id", conversationID,
				"error", err)
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating message rows",
			"conversation_id", conversationID,
			"error", err)
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}
