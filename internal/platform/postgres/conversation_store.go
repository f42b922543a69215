package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/dmoretti/agentq-api/internal/platform/logger"
	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/google/uuid"
)

// PostgresConversationStore implements the store.ConversationStore
// interface using PostgreSQL.
type PostgresConversationStore struct {
	db store.DBTX
}

// NewPostgresConversationStore creates a new PostgresConversationStore.
func NewPostgresConversationStore(db store.DBTX) *PostgresConversationStore {
	return &PostgresConversationStore{
		db: db,
	}
}

// Ensure PostgresConversationStore implements store.ConversationStore interface
var _ store.ConversationStore = (*PostgresConversationStore)(nil)

// Create implements store.ConversationStore.Create
func (s *PostgresConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	log := logger.FromContext(ctx)

	if err := conv.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO conversations (id, user_id, title, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		conv.ID,
		conv.UserID,
		conv.Title,
		conv.IsActive,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to save conversation",
			"conversation_id", conv.ID,
			"error", err)
		return MapError(err, store.ErrConversationNotFound)
	}

	return nil
}

// GetByID implements store.ConversationStore.GetByID
func (s *PostgresConversationStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, user_id, title, is_active, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`

	var conv domain.Conversation
	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Title,
		&conv.IsActive,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		return nil, MapError(err, store.ErrConversationNotFound)
	}

	return &conv, nil
}

// Touch implements store.ConversationStore.Touch
func (s *PostgresConversationStore) Touch(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE conversations
		SET updated_at = $1
		WHERE id = $2 AND user_id = $3
	`

	result, err := s.db.ExecContext(ctx, query, at, id, userID)
	if err != nil {
		log.Error("failed to touch conversation",
			"conversation_id", id,
			"error", err)
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		log.Warn("no visible conversation to touch",
			"conversation_id", id)
	}

	return nil
}
