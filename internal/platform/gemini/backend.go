package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/dmoretti/agentq-api/internal/agent"
	"github.com/dmoretti/agentq-api/internal/config"
	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Common errors for the Gemini backend
var (
	ErrInvalidConfig  = errors.New("invalid gemini configuration")
	ErrEmptyTaskText  = errors.New("task text cannot be empty")
	ErrBlockedContent = errors.New("content blocked by safety filters")
	ErrEmptyResponse  = errors.New("model returned no content")
)

// generateFn matches the shape of client.Models.GenerateContent so the
// API call can be replaced in tests.
type generateFn func(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error)

// streamFn matches the shape of client.Models.GenerateContentStream.
type streamFn func(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) iter.Seq2[*genai.GenerateContentResponse, error]

// GeminiBackend implements the agent.Backend interface using Google's
// Gemini API.
type GeminiBackend struct {
	logger *slog.Logger
	model  string

	generate generateFn
	stream   streamFn
}

// NewGeminiBackend creates a GeminiBackend from the given agent
// configuration. The context is used only for client initialization.
func NewGeminiBackend(ctx context.Context, logger *slog.Logger, cfg config.AgentConfig) (*GeminiBackend, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return &GeminiBackend{
		logger:   logger.With("component", "gemini_backend"),
		model:    cfg.ModelName,
		generate: client.Models.GenerateContent,
		stream:   client.Models.GenerateContentStream,
	}, nil
}

// Ensure GeminiBackend implements agent.Backend interface
var _ agent.Backend = (*GeminiBackend)(nil)

// Execute runs the task text through the model in a single blocking
// call. A transport or API error is returned as an error; a response
// the model produced but that is unusable comes back as an
// unsuccessful Result so the caller can persist the reason.
func (b *GeminiBackend) Execute(ctx context.Context, taskText string, userID uuid.UUID) (*agent.Result, error) {
	if taskText == "" {
		return nil, ErrEmptyTaskText
	}

	log := b.logger.With("user_id", userID)
	log.Debug("executing task", "model", b.model, "task_length", len(taskText))

	contents := []*genai.Content{
		genai.NewContentFromText(taskText, genai.RoleUser),
	}

	resp, err := b.generate(ctx, b.model, contents, nil)
	if err != nil {
		log.Error("gemini API call failed", "error", err)
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		log.Warn("gemini response unusable", "error", err)
		return &agent.Result{Success: false, ErrorMessage: err.Error()}, nil
	}

	return &agent.Result{Success: true, Output: text}, nil
}

// ExecuteStream runs the task with prior conversation turns as context
// and emits progress events as model output arrives. The returned
// channel always ends with a terminal event and is then closed.
func (b *GeminiBackend) ExecuteStream(
	ctx context.Context,
	taskText string,
	userID uuid.UUID,
	history []agent.Turn,
) (<-chan domain.AgentStreamEvent, error) {
	if taskText == "" {
		return nil, ErrEmptyTaskText
	}

	contents := buildContents(taskText, history)
	events := make(chan domain.AgentStreamEvent)

	go func() {
		defer close(events)

		log := b.logger.With("user_id", userID)

		started := domain.NewStreamEvent(domain.EventTypeStarted)
		started.Message = "Executing task"
		if !emit(ctx, events, started) {
			return
		}

		var full string
		for resp, err := range b.stream(ctx, b.model, contents, nil) {
			if err != nil {
				log.Error("gemini stream failed", "error", err)
				emit(ctx, events, domain.NewErrorEvent(fmt.Sprintf("gemini stream failed: %v", err)))
				return
			}

			if blocked(resp) {
				log.Warn("gemini stream blocked by safety filters")
				emit(ctx, events, domain.NewErrorEvent(ErrBlockedContent.Error()))
				return
			}

			chunk := resp.Text()
			if chunk == "" {
				continue
			}

			full += chunk
			ev := domain.NewStreamEvent(domain.EventTypeTextChunk)
			ev.Content = chunk
			if !emit(ctx, events, ev) {
				return
			}
		}

		if full == "" {
			log.Warn("gemini stream produced no text")
			emit(ctx, events, domain.NewErrorEvent(ErrEmptyResponse.Error()))
			return
		}

		done := domain.NewStreamEvent(domain.EventTypeCompleted)
		done.Message = "Task completed"
		done.Content = full
		emit(ctx, events, done)
	}()

	return events, nil
}

// emit sends ev unless ctx is cancelled. Reports whether the send
// happened.
func emit(ctx context.Context, events chan<- domain.AgentStreamEvent, ev domain.AgentStreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// buildContents turns the conversation history plus the new task text
// into the model's content list, oldest turn first.
func buildContents(taskText string, history []agent.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == domain.MessageRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	return append(contents, genai.NewContentFromText(taskText, genai.RoleUser))
}

// extractText pulls the generated text out of a response, rejecting
// empty and safety-blocked responses.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	if blocked(resp) {
		return "", ErrBlockedContent
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

// blocked reports whether the response was cut off by safety filters.
func blocked(resp *genai.GenerateContentResponse) bool {
	if resp == nil || len(resp.Candidates) == 0 {
		return false
	}
	return resp.Candidates[0].FinishReason == genai.FinishReasonSafety
}
