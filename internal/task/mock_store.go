package task

import (
	"context"
	"sync"
	"time"

	"github.com/dmoretti/agentq-api/internal/agent"
	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/google/uuid"
)

// MockTaskStore is an in-memory store.TaskStore for testing. It honors
// the production semantics: ownership-checked reads that collapse
// missing and foreign into ErrTaskNotFound, at-most-once StartedAt and
// CompletedAt, targeted updates that silently no-op on invisible
// records, and a hard guard on the completed state.
//
// Each method can be overridden through its Fn field to inject errors.
type MockTaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.AgentTask

	CreateFn         func(ctx context.Context, task *domain.AgentTask) error
	GetByIDFn        func(ctx context.Context, taskID, userID uuid.UUID) (*domain.AgentTask, error)
	MarkProcessingFn func(ctx context.Context, taskID, userID uuid.UUID) error
	SetResultFn      func(ctx context.Context, taskID, userID uuid.UUID, result string) error
	SetErrorFn       func(ctx context.Context, taskID, userID uuid.UUID, errMsg string) error
	SetJobIDFn       func(ctx context.Context, taskID, userID, jobID uuid.UUID) error
}

// NewMockTaskStore creates a new empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		tasks: make(map[uuid.UUID]*domain.AgentTask),
	}
}

// visible returns the stored task when it exists and is owned by userID.
func (s *MockTaskStore) visible(taskID, userID uuid.UUID) *domain.AgentTask {
	task, ok := s.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil
	}
	return task
}

// Create implements store.TaskStore.
func (s *MockTaskStore) Create(ctx context.Context, task *domain.AgentTask) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, task)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}

	cp := *task
	s.tasks[task.ID] = &cp
	return nil
}

// GetByID implements store.TaskStore.
func (s *MockTaskStore) GetByID(ctx context.Context, taskID, userID uuid.UUID) (*domain.AgentTask, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, taskID, userID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task := s.visible(taskID, userID)
	if task == nil {
		return nil, store.ErrTaskNotFound
	}

	cp := *task
	return &cp, nil
}

// MarkProcessing implements store.TaskStore.
func (s *MockTaskStore) MarkProcessing(ctx context.Context, taskID, userID uuid.UUID) error {
	if s.MarkProcessingFn != nil {
		return s.MarkProcessingFn(ctx, taskID, userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.visible(taskID, userID)
	if task == nil || task.Status == domain.TaskStatusCompleted {
		return nil
	}

	task.Status = domain.TaskStatusProcessing
	if task.StartedAt == nil {
		now := time.Now().UTC()
		task.StartedAt = &now
	}
	return nil
}

// SetResult implements store.TaskStore.
func (s *MockTaskStore) SetResult(ctx context.Context, taskID, userID uuid.UUID, result string) error {
	if s.SetResultFn != nil {
		return s.SetResultFn(ctx, taskID, userID, result)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.visible(taskID, userID)
	if task == nil || task.Status == domain.TaskStatusCompleted {
		return nil
	}

	task.Status = domain.TaskStatusCompleted
	task.Result = &result
	task.Error = nil
	if task.CompletedAt == nil {
		now := time.Now().UTC()
		task.CompletedAt = &now
	}
	return nil
}

// SetError implements store.TaskStore.
func (s *MockTaskStore) SetError(ctx context.Context, taskID, userID uuid.UUID, errMsg string) error {
	if s.SetErrorFn != nil {
		return s.SetErrorFn(ctx, taskID, userID, errMsg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.visible(taskID, userID)
	if task == nil || task.Status == domain.TaskStatusCompleted {
		return nil
	}

	task.Status = domain.TaskStatusFailed
	task.Error = &errMsg
	if task.CompletedAt == nil {
		now := time.Now().UTC()
		task.CompletedAt = &now
	}
	return nil
}

// SetJobID implements store.TaskStore.
func (s *MockTaskStore) SetJobID(ctx context.Context, taskID, userID, jobID uuid.UUID) error {
	if s.SetJobIDFn != nil {
		return s.SetJobIDFn(ctx, taskID, userID, jobID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.visible(taskID, userID)
	if task == nil {
		return nil
	}

	task.JobID = &jobID
	return nil
}

// Snapshot returns a copy of the stored task regardless of ownership,
// for test assertions only.
func (s *MockTaskStore) Snapshot(taskID uuid.UUID) (*domain.AgentTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, false
	}
	cp := *task
	return &cp, true
}

// MockBackend is a configurable agent.Backend for testing.
type MockBackend struct {
	ExecuteFn func(ctx context.Context, taskText string, userID uuid.UUID) (*agent.Result, error)

	ExecuteStreamFn func(
		ctx context.Context,
		taskText string,
		userID uuid.UUID,
		history []agent.Turn,
	) (<-chan domain.AgentStreamEvent, error)

	mu    sync.Mutex
	calls int
}

// Execute implements agent.Backend.
func (b *MockBackend) Execute(ctx context.Context, taskText string, userID uuid.UUID) (*agent.Result, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	if b.ExecuteFn != nil {
		return b.ExecuteFn(ctx, taskText, userID)
	}
	return &agent.Result{Success: true, Output: "ok"}, nil
}

// ExecuteStream implements agent.Backend.
func (b *MockBackend) ExecuteStream(
	ctx context.Context,
	taskText string,
	userID uuid.UUID,
	history []agent.Turn,
) (<-chan domain.AgentStreamEvent, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	if b.ExecuteStreamFn != nil {
		return b.ExecuteStreamFn(ctx, taskText, userID, history)
	}

	ch := make(chan domain.AgentStreamEvent, 2)
	ev := domain.NewStreamEvent(domain.EventTypeCompleted)
	ev.Content = "ok"
	ch <- domain.NewStreamEvent(domain.EventTypeStarted)
	ch <- ev
	close(ch)
	return ch, nil
}

// Calls reports how many times the backend was invoked.
func (b *MockBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}
