package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/dmoretti/agentq-api/internal/platform/logger"
	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/google/uuid"
)

// PostgresTaskStore implements the store.TaskStore interface using
// PostgreSQL. Ownership checks live in the WHERE clause of every
// statement, so a foreign task behaves exactly like a missing one
// without a separate lookup.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.AgentTask) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var metadata []byte
	if task.Metadata != nil {
		var err error
		metadata, err = json.Marshal(task.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal task metadata: %w", err)
		}
	}

	query := `
		INSERT INTO tasks (id, user_id, description, conversation_id, status,
			result, error, job_id, metadata, created_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Description,
		task.ConversationID,
		task.Status,
		task.Result,
		task.Error,
		task.JobID,
		metadata,
		task.CreatedAt,
		task.StartedAt,
		task.CompletedAt,
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", task.ID,
			"error", err)
		return MapError(err, store.ErrTaskNotFound)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, taskID, userID uuid.UUID) (*domain.AgentTask, error) {
	query := `
		SELECT id, user_id, description, conversation_id, status,
			result, error, job_id, metadata, created_at, started_at, completed_at
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	row := s.db.QueryRowContext(ctx, query, taskID, userID)

	var task domain.AgentTask
	var conversationID, jobID sql.Null[uuid.UUID]
	var result, errMsg sql.NullString
	var metadata []byte
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Description,
		&conversationID,
		&task.Status,
		&result,
		&errMsg,
		&jobID,
		&metadata,
		&task.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, MapError(err, store.ErrTaskNotFound)
	}

	if conversationID.Valid {
		task.ConversationID = &conversationID.V
	}
	if result.Valid {
		task.Result = &result.String
	}
	if errMsg.Valid {
		task.Error = &errMsg.String
	}
	if jobID.Valid {
		task.JobID = &jobID.V
	}
	if startedAt.Valid {
		t := startedAt.Time.UTC()
		task.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		task.CompletedAt = &t
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &task.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task metadata: %w", err)
		}
	}

	return &task, nil
}

// MarkProcessing implements store.TaskStore.MarkProcessing
func (s *PostgresTaskStore) MarkProcessing(ctx context.Context, taskID, userID uuid.UUID) error {
	log := logger.FromContext(ctx)

	// started_at is written only on the first transition; a completed
	// record is untouchable.
	query := `
		UPDATE tasks
		SET status = $1,
			started_at = COALESCE(started_at, $2)
		WHERE id = $3 AND user_id = $4 AND status <> $5
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusProcessing,
		time.Now().UTC(),
		taskID,
		userID,
		domain.TaskStatusCompleted,
	)
	if err != nil {
		log.Error("failed to mark task processing",
			"task_id", taskID,
			"error", err)
		return fmt.Errorf("failed to mark task processing: %w", err)
	}

	return s.warnIfNoRows(ctx, result, "mark task processing", taskID)
}

// SetResult implements store.TaskStore.SetResult
func (s *PostgresTaskStore) SetResult(ctx context.Context, taskID, userID uuid.UUID, taskResult string) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET status = $1,
			result = $2,
			error = NULL,
			completed_at = COALESCE(completed_at, $3)
		WHERE id = $4 AND user_id = $5 AND status <> $1
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusCompleted,
		taskResult,
		time.Now().UTC(),
		taskID,
		userID,
	)
	if err != nil {
		log.Error("failed to set task result",
			"task_id", taskID,
			"error", err)
		return fmt.Errorf("failed to set task result: %w", err)
	}

	return s.warnIfNoRows(ctx, result, "set task result", taskID)
}

// SetError implements store.TaskStore.SetError
func (s *PostgresTaskStore) SetError(ctx context.Context, taskID, userID uuid.UUID, errMsg string) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET status = $1,
			error = $2,
			completed_at = COALESCE(completed_at, $3)
		WHERE id = $4 AND user_id = $5 AND status <> $6
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusFailed,
		errMsg,
		time.Now().UTC(),
		taskID,
		userID,
		domain.TaskStatusCompleted,
	)
	if err != nil {
		log.Error("failed to set task error",
			"task_id", taskID,
			"error", err)
		return fmt.Errorf("failed to set task error: %w", err)
	}

	return s.warnIfNoRows(ctx, result, "set task error", taskID)
}

// SetJobID implements store.TaskStore.SetJobID
func (s *PostgresTaskStore) SetJobID(ctx context.Context, taskID, userID, jobID uuid.UUID) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET job_id = $1
		WHERE id = $2 AND user_id = $3
	`

	result, err := s.db.ExecContext(ctx, query, jobID, taskID, userID)
	if err != nil {
		log.Error("failed to set task job ID",
			"task_id", taskID,
			"job_id", jobID,
			"error", err)
		return fmt.Errorf("failed to set task job ID: %w", err)
	}

	return s.warnIfNoRows(ctx, result, "set task job ID", taskID)
}

// warnIfNoRows turns a zero-row targeted update into a logged no-op. A
// missing, foreign, or already-completed record is an expected race on
// this path, never an error.
func (s *PostgresTaskStore) warnIfNoRows(ctx context.Context, result sql.Result, operation string, taskID uuid.UUID) error {
	log := logger.FromContext(ctx)

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			"task_id", taskID,
			"operation", operation,
			"error", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Warn("no visible task for targeted update",
			"task_id", taskID,
			"operation", operation)
	}

	return nil
}
