package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmoretti/agentq-api/internal/domain"
	"github.com/dmoretti/agentq-api/internal/store"
	"github.com/google/uuid"
)

// ErrNilTaskStore is returned when a Watcher is built without a store.
var ErrNilTaskStore = errors.New("task store cannot be nil")

const (
	// pollFloor is the initial and minimum gap between status reads.
	pollFloor = 1000 * time.Millisecond
	// pollCeiling caps the backoff between status reads.
	pollCeiling = 3000 * time.Millisecond
	// pollFactor grows the gap after each read that saw no change.
	pollFactor = 1.5
)

// Watcher adapts the stored status of a queued task into a live event
// stream by polling. The worker writes status transitions to the store;
// the watcher reads them back and re-expresses each one as an event, so
// a client gets the same wire shape whether a task runs inline or in
// the background.
type Watcher struct {
	tasks  store.TaskStore
	logger *slog.Logger

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWatcher creates a new Watcher.
func NewWatcher(tasks store.TaskStore, logger *slog.Logger) (*Watcher, error) {
	if tasks == nil {
		return nil, ErrNilTaskStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &Watcher{
		tasks:  tasks,
		logger: logger.With("component", "watcher"),
		sleep:  sleepCtx,
	}, nil
}

// StreamTaskUpdates polls the task until it reaches a terminal status,
// emitting a started event immediately, a status_change event on every
// observed transition, and finally a completed or error event carrying
// the stored result or failure message.
//
// The gap between reads starts at one second and grows by half after
// each unchanged read, capped at three seconds; an observed transition
// resets it to the floor. Cancelling ctx stops the stream without a
// terminal event.
func (w *Watcher) StreamTaskUpdates(
	ctx context.Context,
	taskID uuid.UUID,
	userID uuid.UUID,
	sink EventSink,
) error {
	if sink == nil {
		return ErrNilSink
	}

	log := w.logger.With("task_id", taskID, "user_id", userID)

	started := domain.NewStreamEvent(domain.EventTypeStarted)
	started.Message = "Watching task"
	if err := sink(started); err != nil {
		return err
	}

	interval := pollFloor
	var lastStatus domain.TaskStatus

	for {
		if ctx.Err() != nil {
			log.Info("task watch cancelled")
			return ctx.Err()
		}

		task, err := w.tasks.GetByID(ctx, taskID, userID)
		if err != nil {
			if store.IsNotFoundError(err) {
				log.Debug("watched task not found")
				return sink(domain.NewErrorEvent("task not found"))
			}
			log.Error("failed to read watched task", "error", err)
			return sink(domain.NewErrorEvent("failed to read task status"))
		}

		if task.Status != lastStatus {
			ev := domain.NewStreamEvent(domain.EventTypeStatusChange)
			ev.Message = string(task.Status)
			if err := sink(ev); err != nil {
				return err
			}
			lastStatus = task.Status
			interval = pollFloor
		}

		switch task.Status {
		case domain.TaskStatusCompleted:
			ev := domain.NewStreamEvent(domain.EventTypeCompleted)
			ev.Message = "Task completed"
			if task.Result != nil {
				ev.Content = *task.Result
			}
			return sink(ev)

		case domain.TaskStatusFailed:
			msg := "task failed"
			if task.Error != nil {
				msg = *task.Error
			}
			return sink(domain.NewErrorEvent(msg))
		}

		if err := w.sleep(ctx, interval); err != nil {
			log.Info("task watch cancelled")
			return err
		}

		interval = nextInterval(interval)
	}
}

// nextInterval grows the polling gap, never past the ceiling.
func nextInterval(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * pollFactor)
	if next > pollCeiling {
		return pollCeiling
	}
	return next
}

// sleepCtx waits for d or for ctx cancellation, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
