package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of an agent task.
type TaskStatus string

// Possible task status values. Completed and Failed are terminal:
// once a task reaches either, no writer may move it elsewhere.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Common validation errors for AgentTask
var (
	ErrEmptyTaskID          = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID      = errors.New("task user ID cannot be empty")
	ErrEmptyTaskDescription = errors.New("task description cannot be empty")
)

// AgentTask represents one natural-language request submitted to the
// agent, tracked from submission through completion or failure. The
// record is the sole shared state between the submitting caller, the
// background processor, and any status observers.
type AgentTask struct {
	ID             uuid.UUID         `json:"id"`
	UserID         uuid.UUID         `json:"user_id"`
	Description    string            `json:"description"`
	ConversationID *uuid.UUID        `json:"conversation_id,omitempty"`
	Status         TaskStatus        `json:"status"`
	Result         *string           `json:"result,omitempty"`
	Error          *string           `json:"error,omitempty"`
	JobID          *uuid.UUID        `json:"job_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}

// NewAgentTask creates a new AgentTask in the pending state with a
// fresh ID. Returns an error if validation fails.
func NewAgentTask(userID uuid.UUID, description string, conversationID *uuid.UUID) (*AgentTask, error) {
	task := &AgentTask{
		ID:             uuid.New(),
		UserID:         userID,
		Description:    description,
		ConversationID: conversationID,
		Status:         TaskStatusPending,
		CreatedAt:      time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the AgentTask has valid data.
func (t *AgentTask) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}

	if t.Description == "" {
		return ErrEmptyTaskDescription
	}

	if !IsValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	return nil
}

// IsTerminal reports whether the task has reached a final state.
func (t *AgentTask) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// IsTerminal reports whether the status permits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// IsValidTaskStatus checks if the given status is a valid TaskStatus.
func IsValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}
