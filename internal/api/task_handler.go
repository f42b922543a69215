package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmoretti/agentq-api/internal/api/shared"
	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/dmoretti/agentq-api/internal/service"
	"github.com/dmoretti/agentq-api/internal/task"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TaskQueuer accepts task submissions and serves status lookups.
type TaskQueuer interface {
	QueueTask(ctx context.Context, text string, userID uuid.UUID, conversationID *uuid.UUID) (uuid.UUID, error)
	GetTaskStatus(ctx context.Context, taskID, userID uuid.UUID) (*task.TaskStatusInfo, error)
}

// TaskWatcher streams status updates for a queued task.
type TaskWatcher interface {
	StreamTaskUpdates(ctx context.Context, taskID, userID uuid.UUID, sink service.EventSink) error
}

// TaskStreamer executes a task live in the request lifetime.
type TaskStreamer interface {
	ExecuteTaskStreaming(ctx context.Context, text string, userID uuid.UUID, conversationID *uuid.UUID, sink service.EventSink) error
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	queue     TaskQueuer
	watcher   TaskWatcher
	streamer  TaskStreamer
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(queue TaskQueuer, watcher TaskWatcher, streamer TaskStreamer, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		queue:     queue,
		watcher:   watcher,
		streamer:  streamer,
		validator: validator.New(),
		logger:    logger.With("component", "task_handler"),
	}
}

// SubmitTask handles POST /api/tasks requests. The task is persisted
// and dispatched to the background scheduler; the response is 202
// since execution happens asynchronously.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	req, ok := h.decodeTaskRequest(w, r)
	if !ok {
		return
	}

	conversationID, ok := parseOptionalUUID(w, r, req.ConversationID)
	if !ok {
		return
	}

	taskID, err := h.queue.QueueTask(r.Context(), req.Description, userID, conversationID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskStatusResponse{
		TaskID: taskID.String(),
		Status: string(domain.TaskStatusPending),
	})
}

// GetTaskStatus handles GET /api/tasks/{id} requests. A nonexistent or
// foreign task yields status "unknown" with 200, never 404, so task
// IDs cannot be probed.
func (h *TaskHandler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	info, err := h.queue.GetTaskStatus(r.Context(), taskID, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statusInfoToResponse(info))
}

// StreamTaskUpdates handles GET /api/tasks/{id}/stream requests,
// adapting status polling on a queued task into an SSE stream.
func (h *TaskHandler) StreamTaskUpdates(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	if err := h.watcher.StreamTaskUpdates(r.Context(), taskID, userID, sse.Send); err != nil {
		// Headers are already on the wire; all we can do is log.
		h.logger.Debug("task update stream ended early",
			"task_id", taskID,
			"error", err)
	}
}

// ExecuteTaskStream handles POST /api/tasks/stream requests, running
// the task synchronously and relaying the backend's events over SSE.
func (h *TaskHandler) ExecuteTaskStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	req, ok := h.decodeTaskRequest(w, r)
	if !ok {
		return
	}

	conversationID, ok := parseOptionalUUID(w, r, req.ConversationID)
	if !ok {
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	if err := h.streamer.ExecuteTaskStreaming(r.Context(), req.Description, userID, conversationID, sse.Send); err != nil {
		h.logger.Debug("live task stream ended early",
			"user_id", userID,
			"error", err)
	}
}

// decodeTaskRequest parses and validates the shared submit/stream
// request body, writing the error response itself on failure.
func (h *TaskHandler) decodeTaskRequest(w http.ResponseWriter, r *http.Request) (SubmitTaskRequest, bool) {
	var req SubmitTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return req, false
	}

	return req, true
}

// authenticatedUser pulls the user ID the auth middleware stored on
// the context.
func authenticatedUser(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}

// parseOptionalUUID parses an optional UUID string from a request,
// writing the error response itself on failure.
func parseOptionalUUID(w http.ResponseWriter, r *http.Request, s *string) (*uuid.UUID, bool) {
	if s == nil || *s == "" {
		return nil, true
	}

	id, err := uuid.Parse(*s)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid conversation ID")
		return nil, false
	}
	return &id, true
}
