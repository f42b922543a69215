package store

import (
	"context"

	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/google/uuid"
)

// TaskStore defines the interface for agent task persistence.
//
// Ownership is absolute: every read and every targeted update carries
// the caller's user ID, and a mismatch is indistinguishable from a
// missing record. Targeted updates verify ownership inside the write
// itself; when the record is missing or not owned they log and return
// nil rather than an error, so a stale or foreign task can never crash
// a background worker.
// Version: 1.0
type TaskStore interface {
	// Create saves a new task to the store. The task ID must be
	// supplied by the caller and unique.
	// Returns ErrDuplicate if the ID is already in use.
	Create(ctx context.Context, task *domain.AgentTask) error

	// GetByID retrieves a task by its unique ID, but only when it is
	// owned by userID. Returns ErrTaskNotFound for a missing record and
	// for an ownership mismatch alike.
	GetByID(ctx context.Context, taskID, userID uuid.UUID) (*domain.AgentTask, error)

	// MarkProcessing transitions the task into the processing state and
	// sets StartedAt if it has never been set. Idempotent across retry
	// attempts; a silent no-op when the task is missing, foreign, or
	// already completed.
	MarkProcessing(ctx context.Context, taskID, userID uuid.UUID) error

	// SetResult records a successful result, transitions the task to
	// completed, and sets CompletedAt if unset. Silent no-op on a
	// missing, foreign, or already-completed task.
	SetResult(ctx context.Context, taskID, userID uuid.UUID, result string) error

	// SetError records a failure message, transitions the task to
	// failed, and sets CompletedAt if unset. Silent no-op on a missing,
	// foreign, or already-completed task.
	SetError(ctx context.Context, taskID, userID uuid.UUID, errMsg string) error

	// SetJobID records the scheduler's job handle on the task after a
	// successful dispatch. Silent no-op on a missing or foreign task.
	SetJobID(ctx context.Context, taskID, userID, jobID uuid.UUID) error
}
