package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockConversationReader backs ConversationHandler tests with a single
// stored conversation and its messages.
type mockConversationReader struct {
	conversation *domain.Conversation
}

func (m *mockConversationReader) Create(ctx context.Context, conv *domain.Conversation) error {
	return nil
}

func (m *mockConversationReader) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Conversation, error) {
	if m.conversation == nil || m.conversation.ID != id || m.conversation.UserID != userID {
		return nil, store.ErrConversationNotFound
	}
	return m.conversation, nil
}

func (m *mockConversationReader) Touch(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	return nil
}

type mockMessageReader struct {
	messages []*domain.Message
	listErr  error
}

func (m *mockMessageReader) Create(ctx context.Context, msg *domain.Message) error {
	return nil
}

func (m *mockMessageReader) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*domain.Message, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.messages, nil
}

func newConversationRouter(h *ConversationHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/conversations/{id}/messages", h.ListMessages)
	return r
}

func TestListMessages(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	conv := &domain.Conversation{ID: uuid.New(), UserID: userID, Title: "Summarize this doc"}
	now := time.Now().UTC()

	msgs := []*domain.Message{
		{ID: uuid.New(), ConversationID: conv.ID, Role: domain.MessageRoleUser, Content: "Summarize this doc", Timestamp: now},
		{ID: uuid.New(), ConversationID: conv.ID, Role: domain.MessageRoleAssistant, Content: "Here is a summary.", Timestamp: now.Add(time.Second)},
	}

	t.Run("returns history oldest first", func(t *testing.T) {
		t.Parallel()

		h := NewConversationHandler(
			&mockConversationReader{conversation: conv},
			&mockMessageReader{messages: msgs},
			testLogger(),
		)

		rec := httptest.NewRecorder()
		newConversationRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/conversations/"+conv.ID.String()+"/messages", nil, userID))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp MessageListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, conv.ID.String(), resp.ConversationID)
		require.Len(t, resp.Messages, 2)
		assert.Equal(t, "user", resp.Messages[0].Role)
		assert.Equal(t, "assistant", resp.Messages[1].Role)
		assert.Equal(t, "Here is a summary.", resp.Messages[1].Content)
	})

	t.Run("empty conversation yields empty list", func(t *testing.T) {
		t.Parallel()

		h := NewConversationHandler(
			&mockConversationReader{conversation: conv},
			&mockMessageReader{messages: []*domain.Message{}},
			testLogger(),
		)

		rec := httptest.NewRecorder()
		newConversationRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/conversations/"+conv.ID.String()+"/messages", nil, userID))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"messages":[]`)
	})

	t.Run("foreign conversation is 404", func(t *testing.T) {
		t.Parallel()

		h := NewConversationHandler(
			&mockConversationReader{conversation: conv},
			&mockMessageReader{messages: msgs},
			testLogger(),
		)

		rec := httptest.NewRecorder()
		newConversationRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/conversations/"+conv.ID.String()+"/messages", nil, uuid.New()))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing conversation is 404", func(t *testing.T) {
		t.Parallel()

		h := NewConversationHandler(
			&mockConversationReader{conversation: conv},
			&mockMessageReader{messages: msgs},
			testLogger(),
		)

		rec := httptest.NewRecorder()
		newConversationRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/conversations/"+uuid.NewString()+"/messages", nil, userID))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid conversation ID", func(t *testing.T) {
		t.Parallel()

		h := NewConversationHandler(
			&mockConversationReader{conversation: conv},
			&mockMessageReader{},
			testLogger(),
		)

		rec := httptest.NewRecorder()
		newConversationRouter(h).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/conversations/not-a-uuid/messages", nil, userID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing auth context", func(t *testing.T) {
		t.Parallel()

		h := NewConversationHandler(
			&mockConversationReader{conversation: conv},
			&mockMessageReader{},
			testLogger(),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/conversations/"+conv.ID.String()+"/messages", nil)
		rec := httptest.NewRecorder()
		newConversationRouter(h).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
