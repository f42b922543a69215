package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies the author of a conversation turn.
type MessageRole string

// Possible message roles
const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Common validation errors for Message
var (
	ErrEmptyMessageID             = errors.New("message ID cannot be empty")
	ErrEmptyMessageConversationID = errors.New("message conversation ID cannot be empty")
)

// Message is a single turn in a conversation. Messages are append-only;
// a conversation's history is its messages ordered by timestamp, oldest
// first.
type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	Timestamp      time.Time   `json:"timestamp"`
}

// NewMessage creates a new Message with a fresh ID and the current
// time. Returns an error if validation fails.
func NewMessage(conversationID uuid.UUID, role MessageRole, content string) (*Message, error) {
	msg := &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      time.Now().UTC(),
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return msg, nil
}

// Validate checks if the Message has valid data.
func (m *Message) Validate() error {
	if m.ID == uuid.Nil {
		return ErrEmptyMessageID
	}

	if m.ConversationID == uuid.Nil {
		return ErrEmptyMessageConversationID
	}

	if !isValidMessageRole(m.Role) {
		return ErrInvalidMessageRole
	}

	if m.Content == "" {
		return ErrEmptyContent
	}

	return nil
}

// isValidMessageRole checks if the given role is a valid MessageRole.
func isValidMessageRole(role MessageRole) bool {
	switch role {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	default:
		return false
	}
}
