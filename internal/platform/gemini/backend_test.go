package gemini

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"testing"
	"time"

	"github.com/dmoretti/agentq-api/internal/agent"
	"github.com/dmoretti/agentq-api/internal/config"
	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// textResponse builds a minimal model response carrying the given text.
func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: text}},
				},
			},
		},
	}
}

func blockedResponse() *genai.GenerateContentResponse {
	resp := textResponse("")
	resp.Candidates[0].FinishReason = genai.FinishReasonSafety
	return resp
}

// fakeBackend builds a GeminiBackend with injected API functions,
// skipping real client construction.
func fakeBackend(generate generateFn, stream streamFn) *GeminiBackend {
	return &GeminiBackend{
		logger:   testLogger(),
		model:    "gemini-2.0-flash",
		generate: generate,
		stream:   stream,
	}
}

// streamSeq turns a fixed sequence of response/error pairs into the
// iterator shape the API returns.
func streamSeq(pairs ...func() (*genai.GenerateContentResponse, error)) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, pair := range pairs {
			resp, err := pair()
			if !yield(resp, err) {
				return
			}
		}
	}
}

func respOf(resp *genai.GenerateContentResponse) func() (*genai.GenerateContentResponse, error) {
	return func() (*genai.GenerateContentResponse, error) { return resp, nil }
}

func errOf(err error) func() (*genai.GenerateContentResponse, error) {
	return func() (*genai.GenerateContentResponse, error) { return nil, err }
}

func TestNewGeminiBackendValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.AgentConfig
	}{
		{name: "missing API key", cfg: config.AgentConfig{ModelName: "gemini-2.0-flash"}},
		{name: "missing model name", cfg: config.AgentConfig{GeminiAPIKey: "key"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewGeminiBackend(context.Background(), testLogger(), tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()

		_, err := NewGeminiBackend(context.Background(), nil, config.AgentConfig{
			GeminiAPIKey: "key",
			ModelName:    "gemini-2.0-flash",
		})
		require.Error(t, err)
	})
}

func TestExecute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		b := fakeBackend(func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			require.Len(t, contents, 1)
			assert.Equal(t, "Summarize this doc", contents[0].Parts[0].Text)
			return textResponse("the summary"), nil
		}, nil)

		result, err := b.Execute(ctx, "Summarize this doc", userID)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "the summary", result.Output)
	})

	t.Run("empty task text", func(t *testing.T) {
		t.Parallel()

		b := fakeBackend(nil, nil)
		_, err := b.Execute(ctx, "", userID)
		assert.ErrorIs(t, err, ErrEmptyTaskText)
	})

	t.Run("API error surfaces as error", func(t *testing.T) {
		t.Parallel()

		b := fakeBackend(func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("connection reset")
		}, nil)

		_, err := b.Execute(ctx, "text", userID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("blocked content is a reported failure, not an error", func(t *testing.T) {
		t.Parallel()

		b := fakeBackend(func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return blockedResponse(), nil
		}, nil)

		result, err := b.Execute(ctx, "text", userID)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.ErrorMessage, "safety")
	})

	t.Run("empty response is a reported failure", func(t *testing.T) {
		t.Parallel()

		b := fakeBackend(func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		}, nil)

		result, err := b.Execute(ctx, "text", userID)
		require.NoError(t, err)
		assert.False(t, result.Success)
	})
}

// drain collects every event until the channel closes.
func drain(t *testing.T, events <-chan domain.AgentStreamEvent) []domain.AgentStreamEvent {
	t.Helper()

	var out []domain.AgentStreamEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out draining event channel")
		}
	}
}

func TestExecuteStream(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	userID := uuid.New()

	t.Run("chunks then completion", func(t *testing.T) {
		t.Parallel()

		b := fakeBackend(nil, func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
			return streamSeq(
				respOf(textResponse("The answer ")),
				respOf(textResponse("is 42.")),
			)
		})

		events, err := b.ExecuteStream(ctx, "What is the answer?", userID, nil)
		require.NoError(t, err)

		got := drain(t, events)
		require.Len(t, got, 4)
		assert.Equal(t, domain.EventTypeStarted, got[0].Type)
		assert.Equal(t, domain.EventTypeTextChunk, got[1].Type)
		assert.Equal(t, "The answer ", got[1].Content)
		assert.Equal(t, domain.EventTypeTextChunk, got[2].Type)
		assert.Equal(t, domain.EventTypeCompleted, got[3].Type)
		assert.Equal(t, "The answer is 42.", got[3].Content)
	})

	t.Run("history shapes the content list", func(t *testing.T) {
		t.Parallel()

		var gotContents []*genai.Content
		b := fakeBackend(nil, func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
			gotContents = contents
			return streamSeq(respOf(textResponse("reply")))
		})

		history := []agent.Turn{
			{Role: domain.MessageRoleUser, Content: "earlier task"},
			{Role: domain.MessageRoleAssistant, Content: "earlier reply"},
		}
		events, err := b.ExecuteStream(ctx, "follow-up", userID, history)
		require.NoError(t, err)
		drain(t, events)

		require.Len(t, gotContents, 3)
		assert.Equal(t, genai.Role(genai.RoleUser), genai.Role(gotContents[0].Role))
		assert.Equal(t, genai.Role(genai.RoleModel), genai.Role(gotContents[1].Role))
		assert.Equal(t, genai.Role(genai.RoleUser), genai.Role(gotContents[2].Role))
		assert.Equal(t, "follow-up", gotContents[2].Parts[0].Text)
	})

	t.Run("mid-stream error terminates with error event", func(t *testing.T) {
		t.Parallel()

		b := fakeBackend(nil, func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
			return streamSeq(
				respOf(textResponse("partial")),
				errOf(errors.New("stream reset")),
			)
		})

		events, err := b.ExecuteStream(ctx, "text", userID, nil)
		require.NoError(t, err)

		got := drain(t, events)
		last := got[len(got)-1]
		assert.Equal(t, domain.EventTypeError, last.Type)
		assert.Contains(t, last.Message, "stream reset")
	})

	t.Run("blocked stream terminates with error event", func(t *testing.T) {
		t.Parallel()

		b := fakeBackend(nil, func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
			return streamSeq(respOf(blockedResponse()))
		})

		events, err := b.ExecuteStream(ctx, "text", userID, nil)
		require.NoError(t, err)

		got := drain(t, events)
		last := got[len(got)-1]
		assert.Equal(t, domain.EventTypeError, last.Type)
	})

	t.Run("empty stream terminates with error event", func(t *testing.T) {
		t.Parallel()

		b := fakeBackend(nil, func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
			return streamSeq()
		})

		events, err := b.ExecuteStream(ctx, "text", userID, nil)
		require.NoError(t, err)

		got := drain(t, events)
		require.Len(t, got, 2)
		assert.Equal(t, domain.EventTypeError, got[1].Type)
	})

	t.Run("empty task text rejected up front", func(t *testing.T) {
		t.Parallel()

		b := fakeBackend(nil, nil)
		_, err := b.ExecuteStream(ctx, "", userID, nil)
		assert.ErrorIs(t, err, ErrEmptyTaskText)
	})
}
