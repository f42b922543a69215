package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// titlePrefixLen is the number of leading characters kept when deriving
// a conversation title from task text.
const titlePrefixLen = 47

// Common validation errors for Conversation
var (
	ErrEmptyConversationID     = errors.New("conversation ID cannot be empty")
	ErrEmptyConversationUserID = errors.New("conversation user ID cannot be empty")
	ErrEmptyConversationTitle  = errors.New("conversation title cannot be empty")
)

// Conversation is an ordered, append-only exchange of user and
// assistant turns owned by a single user. Conversations are created
// lazily by the streaming executor when a task arrives without one.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation creates a new active Conversation whose title is
// derived from the given task text. Returns an error if validation
// fails.
func NewConversation(userID uuid.UUID, taskText string) (*Conversation, error) {
	now := time.Now().UTC()
	conv := &Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     DeriveTitle(taskText),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := conv.Validate(); err != nil {
		return nil, err
	}

	return conv, nil
}

// Validate checks if the Conversation has valid data.
func (c *Conversation) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyConversationID
	}

	if c.UserID == uuid.Nil {
		return ErrEmptyConversationUserID
	}

	if c.Title == "" {
		return ErrEmptyConversationTitle
	}

	return nil
}

// Touch updates the conversation's UpdatedAt timestamp.
func (c *Conversation) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

// DeriveTitle produces a conversation title from task text: the text
// verbatim when it fits, otherwise the first 47 characters followed by
// an ellipsis marker.
func DeriveTitle(taskText string) string {
	runes := []rune(taskText)
	if len(runes) <= titlePrefixLen {
		return taskText
	}
	return string(runes[:titlePrefixLen]) + "..."
}
