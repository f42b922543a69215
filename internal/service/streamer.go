package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmoretti/agentq-api/internal/agent"
	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/google/uuid"
)

// EventSink receives stream events in production order. A non-nil
// return stops the stream; the usual cause is a disconnected client.
type EventSink func(domain.AgentStreamEvent) error

// Common errors for service construction
var (
	ErrNilConversationStore = errors.New("conversation store cannot be nil")
	ErrNilMessageStore      = errors.New("message store cannot be nil")
	ErrNilBackend           = errors.New("backend cannot be nil")
	ErrNilLogger            = errors.New("logger cannot be nil")
	ErrNilSink              = errors.New("event sink cannot be nil")
)

// Streamer runs one task synchronously while forwarding the backend's
// progress events live, with full conversation bookkeeping. It never
// touches the task queue; the record store is not involved at all on
// this path.
type Streamer struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	backend       agent.Backend
	logger        *slog.Logger
}

// NewStreamer creates a new Streamer.
func NewStreamer(
	conversations store.ConversationStore,
	messages store.MessageStore,
	backend agent.Backend,
	logger *slog.Logger,
) (*Streamer, error) {
	if conversations == nil {
		return nil, ErrNilConversationStore
	}
	if messages == nil {
		return nil, ErrNilMessageStore
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &Streamer{
		conversations: conversations,
		messages:      messages,
		backend:       backend,
		logger:        logger.With("component", "streamer"),
	}, nil
}

// ExecuteTaskStreaming runs the task and forwards every backend event
// to sink in exactly the order produced.
//
// When conversationID is nil a new conversation is created with a title
// derived from the task text; otherwise the existing conversation's
// history is supplied to the backend as context. The incoming text is
// persisted as a user message before execution. The assistant reply is
// persisted exactly once, only after the terminal completed event,
// using that event's explicit content when present and the accumulated
// text chunks otherwise. A failed run persists no assistant message;
// if the stream ends without any terminal event at all, one synthetic
// error event is emitted so every stream ends terminally.
func (s *Streamer) ExecuteTaskStreaming(
	ctx context.Context,
	text string,
	userID uuid.UUID,
	conversationID *uuid.UUID,
	sink EventSink,
) error {
	if sink == nil {
		return ErrNilSink
	}

	conv, history, err := s.resolveConversation(ctx, text, userID, conversationID)
	if err != nil {
		return err
	}

	log := s.logger.With("conversation_id", conv.ID, "user_id", userID)

	userMsg, err := domain.NewMessage(conv.ID, domain.MessageRoleUser, text)
	if err != nil {
		return fmt.Errorf("invalid user message: %w", err)
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return fmt.Errorf("failed to persist user message: %w", err)
	}

	events, err := s.backend.ExecuteStream(ctx, text, userID, history)
	if err != nil {
		log.Error("backend stream failed to start", "error", err)
		return sink(domain.NewErrorEvent(err.Error()))
	}

	var accumulated string
	var completed *domain.AgentStreamEvent
	var sawTerminal bool

	for {
		select {
		case <-ctx.Done():
			log.Info("stream observation cancelled")
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return s.finish(ctx, log, conv, completed, sawTerminal, accumulated, sink)
			}

			if err := sink(ev); err != nil {
				log.Warn("event sink rejected event, abandoning stream", "error", err)
				return err
			}

			if ev.IsTerminal() {
				sawTerminal = true
			}

			switch ev.Type {
			case domain.EventTypeTextChunk:
				accumulated += ev.Content
			case domain.EventTypeCompleted:
				ev := ev
				completed = &ev
			}
		}
	}
}

// resolveConversation loads the linked conversation and its history, or
// lazily creates a fresh one when no link was supplied.
func (s *Streamer) resolveConversation(
	ctx context.Context,
	text string,
	userID uuid.UUID,
	conversationID *uuid.UUID,
) (*domain.Conversation, []agent.Turn, error) {
	if conversationID == nil {
		conv, err := domain.NewConversation(userID, text)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid conversation: %w", err)
		}
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		return conv, nil, nil
	}

	conv, err := s.conversations.GetByID(ctx, *conversationID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	msgs, err := s.messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	history := make([]agent.Turn, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, agent.Turn{Role: m.Role, Content: m.Content})
	}

	return conv, history, nil
}

// finish runs once the backend's event channel closes. The assistant
// turn is written here and nowhere else, so it can never be persisted
// speculatively or twice.
func (s *Streamer) finish(
	ctx context.Context,
	log *slog.Logger,
	conv *domain.Conversation,
	completed *domain.AgentStreamEvent,
	sawTerminal bool,
	accumulated string,
	sink EventSink,
) error {
	if completed == nil {
		if sawTerminal {
			// The backend already reported its own error; that event
			// ended the stream.
			log.Info("backend stream ended with error event")
			return nil
		}
		// The backend went away without a terminal event.
		log.Error("backend stream ended without terminal event")
		return sink(domain.NewErrorEvent("execution ended unexpectedly"))
	}

	content := completed.Content
	if content == "" {
		content = accumulated
	}

	if content == "" {
		log.Warn("completed run produced no assistant content")
		return nil
	}

	assistantMsg, err := domain.NewMessage(conv.ID, domain.MessageRoleAssistant, content)
	if err != nil {
		return fmt.Errorf("invalid assistant message: %w", err)
	}
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		return fmt.Errorf("failed to persist assistant message: %w", err)
	}

	if err := s.conversations.Touch(ctx, conv.ID, conv.UserID, time.Now().UTC()); err != nil {
		// The reply is saved; a stale UpdatedAt is not worth failing the run.
		log.Warn("failed to refresh conversation timestamp", "error", err)
	}

	return nil
}
