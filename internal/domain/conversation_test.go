package domain_test

import (
	"strings"
	"testing"

	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "short text stored verbatim",
			text: "Hello world",
			want: "Hello world",
		},
		{
			name: "exactly 47 characters stored verbatim",
			text: strings.Repeat("a", 47),
			want: strings.Repeat("a", 47),
		},
		{
			name: "60 characters truncated to 47 plus ellipsis",
			text: strings.Repeat("x", 60),
			want: strings.Repeat("x", 47) + "...",
		},
		{
			name: "multibyte text truncated on rune boundary",
			text: strings.Repeat("日", 50),
			want: strings.Repeat("日", 47) + "...",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, domain.DeriveTitle(tt.text))
		})
	}
}

func TestNewConversation(t *testing.T) {
	t.Parallel()

	t.Run("valid conversation", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		conv, err := domain.NewConversation(userID, "Plan my trip to Lisbon")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, conv.ID)
		assert.Equal(t, userID, conv.UserID)
		assert.Equal(t, "Plan my trip to Lisbon", conv.Title)
		assert.True(t, conv.IsActive)
		assert.Equal(t, conv.CreatedAt, conv.UpdatedAt)
	})

	t.Run("empty user ID", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewConversation(uuid.Nil, "text")
		assert.ErrorIs(t, err, domain.ErrEmptyConversationUserID)
	})

	t.Run("empty task text", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewConversation(uuid.New(), "")
		assert.ErrorIs(t, err, domain.ErrEmptyConversationTitle)
	})
}

func TestConversationTouch(t *testing.T) {
	t.Parallel()

	conv, err := domain.NewConversation(uuid.New(), "text")
	require.NoError(t, err)

	before := conv.UpdatedAt
	conv.Touch()
	assert.False(t, conv.UpdatedAt.Before(before))
}

func TestNewMessage(t *testing.T) {
	t.Parallel()

	convID := uuid.New()

	t.Run("valid message", func(t *testing.T) {
		t.Parallel()

		msg, err := domain.NewMessage(convID, domain.MessageRoleUser, "hello")
		require.NoError(t, err)
		assert.Equal(t, convID, msg.ConversationID)
		assert.Equal(t, domain.MessageRoleUser, msg.Role)
		assert.Equal(t, "hello", msg.Content)
		assert.False(t, msg.Timestamp.IsZero())
	})

	t.Run("invalid role", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewMessage(convID, domain.MessageRole("bot"), "hello")
		assert.ErrorIs(t, err, domain.ErrInvalidMessageRole)
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewMessage(convID, domain.MessageRoleAssistant, "")
		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})
}
