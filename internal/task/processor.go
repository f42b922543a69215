package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmoretti/agentq-api/internal/agent"
	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/google/uuid"
)

// Common errors for ExecutionJob construction
var (
	ErrNilTaskStore = errors.New("task store cannot be nil")
	ErrNilBackend   = errors.New("backend cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
	ErrNilTask      = errors.New("task cannot be nil")

	// ErrExecutionFailed wraps a failure the backend reported as data.
	ErrExecutionFailed = errors.New("task execution failed")
)

// ExecutionJob advances one queued task record through its state
// machine: pending -> processing -> completed or failed. The scheduler
// invokes Execute once per attempt, so every step must tolerate being
// repeated after a failed attempt.
type ExecutionJob struct {
	taskID      uuid.UUID
	userID      uuid.UUID
	description string
	tasks       store.TaskStore
	backend     agent.Backend
	logger      *slog.Logger
}

// NewExecutionJob creates the background job for a queued task.
func NewExecutionJob(
	taskID, userID uuid.UUID,
	description string,
	tasks store.TaskStore,
	backend agent.Backend,
	logger *slog.Logger,
) (*ExecutionJob, error) {
	if taskID == uuid.Nil || userID == uuid.Nil {
		return nil, ErrNilTask
	}
	if tasks == nil {
		return nil, ErrNilTaskStore
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &ExecutionJob{
		taskID:      taskID,
		userID:      userID,
		description: description,
		tasks:       tasks,
		backend:     backend,
		logger:      logger.With("task_id", taskID),
	}, nil
}

// ID returns the identifier of the task record this job advances.
func (j *ExecutionJob) ID() uuid.UUID {
	return j.taskID
}

// Execute runs one attempt of the task.
//
// On success the result is persisted and the record marked completed.
// When the backend reports a failure as data, the error text is
// persisted and the record marked failed, and Execute still returns an
// error so the scheduler's retry policy counts the attempt as failed.
// On an unexpected error the message is persisted best-effort (a
// secondary persistence failure is logged, never allowed to mask the
// original) before the error propagates for retry. A later successful
// attempt overwrites the transient failed state; observers polling
// mid-retry must treat failed as provisional until retries exhaust.
func (j *ExecutionJob) Execute(ctx context.Context) error {
	j.logger.Info("processing task")

	// StartedAt is written only on the first transition into
	// processing; repeats across retries are no-ops for it.
	if err := j.tasks.MarkProcessing(ctx, j.taskID, j.userID); err != nil {
		j.recordFailure(ctx, err.Error())
		return fmt.Errorf("failed to mark task processing: %w", err)
	}

	result, err := j.backend.Execute(ctx, j.description, j.userID)
	if err != nil {
		j.recordFailure(ctx, err.Error())
		return fmt.Errorf("backend execution error: %w", err)
	}

	if !result.Success {
		j.logger.Warn("backend reported failure", "error", result.ErrorMessage)
		j.recordFailure(ctx, result.ErrorMessage)
		return fmt.Errorf("%w: %s", ErrExecutionFailed, result.ErrorMessage)
	}

	if err := j.tasks.SetResult(ctx, j.taskID, j.userID, result.Output); err != nil {
		j.recordFailure(ctx, err.Error())
		return fmt.Errorf("failed to persist task result: %w", err)
	}

	j.logger.Info("task completed")
	return nil
}

// recordFailure persists the failure text onto the record, swallowing
// and logging any secondary store failure so it never masks the
// original error.
func (j *ExecutionJob) recordFailure(ctx context.Context, errMsg string) {
	if err := j.tasks.SetError(ctx, j.taskID, j.userID, errMsg); err != nil {
		j.logger.Error("failed to persist task error state",
			"original_error", errMsg,
			"error", err)
	}
}
