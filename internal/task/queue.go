package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmoretti/agentq-api/internal/agent"
	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/google/uuid"
)

// TaskStatusUnknown is the status reported for a task the caller cannot
// see: nonexistent IDs and foreign tasks produce this exact same shape.
// It is a reporting value only and is never stored on a record.
const TaskStatusUnknown domain.TaskStatus = "unknown"

// TaskStatusInfo is the externally visible status of a queued task.
type TaskStatusInfo struct {
	TaskID      uuid.UUID         `json:"task_id"`
	Status      domain.TaskStatus `json:"status"`
	Result      *string           `json:"result,omitempty"`
	Error       *string           `json:"error,omitempty"`
	CreatedAt   *time.Time        `json:"created_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Queue accepts task submissions, persists the record, and dispatches
// execution to the background scheduler. It also serves ownership-
// checked status lookups.
type Queue struct {
	tasks     store.TaskStore
	backend   agent.Backend
	scheduler Dispatcher
	logger    *slog.Logger
}

// NewQueue creates a new Queue.
func NewQueue(
	tasks store.TaskStore,
	backend agent.Backend,
	scheduler Dispatcher,
	logger *slog.Logger,
) (*Queue, error) {
	if tasks == nil {
		return nil, ErrNilTaskStore
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &Queue{
		tasks:     tasks,
		backend:   backend,
		scheduler: scheduler,
		logger:    logger.With("component", "task_queue"),
	}, nil
}

// QueueTask persists a new pending task, dispatches it to the
// scheduler, and records the scheduler's job handle on the record.
//
// When dispatch fails after the record was created, the record is left
// pending with no job ID; there is no automatic reconciliation, so the
// condition is logged loudly and the error returned. When only the
// job-handle write fails, the job is already running and submission is
// still reported as successful.
func (q *Queue) QueueTask(
	ctx context.Context,
	text string,
	userID uuid.UUID,
	conversationID *uuid.UUID,
) (uuid.UUID, error) {
	task, err := domain.NewAgentTask(userID, text, conversationID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid task: %w", err)
	}

	if err := q.tasks.Create(ctx, task); err != nil {
		return uuid.Nil, fmt.Errorf("failed to persist task: %w", err)
	}

	job, err := NewExecutionJob(task.ID, task.UserID, task.Description, q.tasks, q.backend, q.logger)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build execution job: %w", err)
	}

	jobID, err := q.scheduler.Submit(job)
	if err != nil {
		// The record now exists but nothing will ever advance it.
		q.logger.Error("task dispatch failed, record left pending with no job handle",
			"task_id", task.ID,
			"user_id", task.UserID,
			"error", err)
		return uuid.Nil, fmt.Errorf("failed to dispatch task: %w", err)
	}

	if err := q.tasks.SetJobID(ctx, task.ID, task.UserID, jobID); err != nil {
		q.logger.Warn("failed to record job handle on task",
			"task_id", task.ID,
			"job_id", jobID,
			"error", err)
	}

	q.logger.Info("task queued", "task_id", task.ID, "job_id", jobID)
	return task.ID, nil
}

// GetTaskStatus returns the status of a task visible to userID. A
// nonexistent or foreign task yields the unknown shape, never an error,
// so callers cannot probe for the existence of other users' tasks.
func (q *Queue) GetTaskStatus(
	ctx context.Context,
	taskID, userID uuid.UUID,
) (*TaskStatusInfo, error) {
	task, err := q.tasks.GetByID(ctx, taskID, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return &TaskStatusInfo{TaskID: taskID, Status: TaskStatusUnknown}, nil
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	createdAt := task.CreatedAt
	return &TaskStatusInfo{
		TaskID:      task.ID,
		Status:      task.Status,
		Result:      task.Result,
		Error:       task.Error,
		CreatedAt:   &createdAt,
		CompletedAt: task.CompletedAt,
	}, nil
}
