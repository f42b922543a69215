package store

import (
	"context"
	"time"

	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/google/uuid"
)

// ConversationStore defines the interface for conversation persistence.
// Reads are ownership-checked the same way task reads are.
// Version: 1.0
type ConversationStore interface {
	// Create saves a new conversation to the store.
	Create(ctx context.Context, conv *domain.Conversation) error

	// GetByID retrieves a conversation by ID when owned by userID.
	// Returns ErrConversationNotFound for a missing record and for an
	// ownership mismatch alike.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Conversation, error)

	// Touch refreshes the conversation's UpdatedAt timestamp. A silent
	// no-op when the conversation is missing or foreign.
	Touch(ctx context.Context, id, userID uuid.UUID, at time.Time) error
}

// MessageStore defines the interface for conversation message persistence.
// Messages are append-only; history is ordered by timestamp, oldest first.
// Version: 1.0
type MessageStore interface {
	// Create appends a new message to its conversation.
	Create(ctx context.Context, msg *domain.Message) error

	// ListByConversation returns all messages of a conversation ordered
	// oldest first. Returns an empty slice when there are none.
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*domain.Message, error)
}
