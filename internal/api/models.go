package api

import (
	"time"

	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/dmoretti/agentq-api/internal/task"
)

// SubmitTaskRequest is the request body for queueing a task and for
// the live streaming endpoint alike.
type SubmitTaskRequest struct {
	Description    string  `json:"description"     validate:"required,min=1,max=10000"`
	ConversationID *string `json:"conversation_id" validate:"omitempty,uuid"`
}

// TaskStatusResponse is the response body for task submission and
// status lookups.
type TaskStatusResponse struct {
	TaskID      string     `json:"task_id"`
	Status      string     `json:"status"`
	Result      *string    `json:"result,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MessageResponse is one conversation turn in a history listing.
type MessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageListResponse is the response body for a history listing.
type MessageListResponse struct {
	ConversationID string            `json:"conversation_id"`
	Messages       []MessageResponse `json:"messages"`
}

// statusInfoToResponse converts a task.TaskStatusInfo to its DTO.
func statusInfoToResponse(info *task.TaskStatusInfo) TaskStatusResponse {
	return TaskStatusResponse{
		TaskID:      info.TaskID.String(),
		Status:      string(info.Status),
		Result:      info.Result,
		Error:       info.Error,
		CreatedAt:   info.CreatedAt,
		CompletedAt: info.CompletedAt,
	}
}

// messageToResponse converts a domain.Message to its DTO.
func messageToResponse(msg *domain.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.ID.String(),
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}
}
