package api

import (
	"log/slog"
	"net/http"

	"github.com/dmoretti/agentq-api/internal/api/shared"
	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ConversationHandler handles conversation-related HTTP requests.
type ConversationHandler struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	logger        *slog.Logger
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(
	conversations store.ConversationStore,
	messages store.MessageStore,
	logger *slog.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		messages:      messages,
		logger:        logger.With("component", "conversation_handler"),
	}
}

// ListMessages handles GET /api/conversations/{id}/messages requests.
// The ownership check on the conversation read covers the message
// listing; a foreign conversation is a plain 404.
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	conv, err := h.conversations.GetByID(r.Context(), conversationID, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	msgs, err := h.messages.ListByConversation(r.Context(), conv.ID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	response := MessageListResponse{
		ConversationID: conv.ID.String(),
		Messages:       make([]MessageResponse, 0, len(msgs)),
	}
	for _, msg := range msgs {
		response.Messages = append(response.Messages, messageToResponse(msg))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}
