package agent

import (
	"context"

	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/google/uuid"
)

// Turn is one prior exchange supplied to the backend as conversation
// context, oldest first.
type Turn struct {
	Role    domain.MessageRole
	Content string
}

// Result is the outcome of a one-shot execution. A backend may report a
// failure as data (Success false with ErrorMessage set) rather than as
// a Go error; the two are handled differently by the task processor.
type Result struct {
	Success      bool
	Output       string
	ErrorMessage string
}

// Backend is the execution backend boundary. Given task text and the
// submitting user, it either returns a single result (queued path) or
// produces a live sequence of typed progress events (streaming path).
//
// ExecuteStream sends events on the returned channel in production
// order and closes it after the terminal event. A returned error means
// the stream could not be started at all.
// Version: 1.0
type Backend interface {
	// Execute runs the task to completion and returns a single result.
	// The queued path never carries conversation context.
	Execute(ctx context.Context, taskText string, userID uuid.UUID) (*Result, error)

	// ExecuteStream runs the task and emits progress events, with the
	// given prior turns as conversation context.
	ExecuteStream(
		ctx context.Context,
		taskText string,
		userID uuid.UUID,
		history []Turn,
	) (<-chan domain.AgentStreamEvent, error)
}
