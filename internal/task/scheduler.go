package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by the Scheduler
var (
	ErrQueueFull        = errors.New("scheduler queue is full")
	ErrSchedulerStopped = errors.New("scheduler is stopped")
)

// Job represents a unit of background work to be processed.
// Version: 1.0
type Job interface {
	// ID returns the identifier of the task record this job advances.
	ID() uuid.UUID

	// Execute runs the job logic. A non-nil error makes the scheduler
	// retry the job until its attempt budget is exhausted.
	Execute(ctx context.Context) error
}

// Dispatcher is the submission side of the scheduler boundary. Submit
// hands a job to the worker pool and returns the scheduler's handle
// for it.
// Version: 1.0
type Dispatcher interface {
	Submit(job Job) (uuid.UUID, error)
}

// SchedulerConfig holds configuration for the background scheduler.
type SchedulerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue.
	QueueSize int

	// MaxAttempts is the total number of times a failing job is tried.
	MaxAttempts int

	// RetryDelays are the waits between attempts. Attempt n waits
	// RetryDelays[n-1] before attempt n+1; the last delay repeats when
	// attempts outnumber delays.
	RetryDelays []time.Duration
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		WorkerCount: 2,
		QueueSize:   100,
		MaxAttempts: 3,
		RetryDelays: []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second},
	}
}

// queuedJob pairs a submitted job with the handle returned to the caller.
type queuedJob struct {
	jobID uuid.UUID
	job   Job
}

// Scheduler runs submitted jobs on a pool of workers and retries each
// failing job up to its attempt budget. Jobs run on contexts derived
// from the scheduler's own lifetime, never the submitter's: once a job
// is dispatched, the caller's cancellation cannot reach it.
type Scheduler struct {
	jobChan    chan queuedJob
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     SchedulerConfig
	logger     *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if len(config.RetryDelays) == 0 {
		config.RetryDelays = DefaultSchedulerConfig().RetryDelays
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		jobChan:    make(chan queuedJob, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With("component", "scheduler"),
	}
}

// Start launches the worker goroutines.
func (s *Scheduler) Start() {
	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop shuts the scheduler down. Queued jobs that have not started are
// dropped; running jobs observe the cancelled context. The job channel
// is never closed: a Submit racing Stop must not panic, so workers exit
// on the cancelled context instead.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancelFunc()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Submit enqueues a job for background execution and returns the job
// handle. Returns ErrQueueFull when the buffer is exhausted and
// ErrSchedulerStopped after Stop.
func (s *Scheduler) Submit(job Job) (uuid.UUID, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return uuid.Nil, ErrSchedulerStopped
	}

	qj := queuedJob{jobID: uuid.New(), job: job}

	select {
	case s.jobChan <- qj:
		s.logger.Debug("job enqueued",
			"job_id", qj.jobID,
			"task_id", job.ID(),
			"queue_len", len(s.jobChan),
			"queue_cap", cap(s.jobChan))
		return qj.jobID, nil
	default:
		return uuid.Nil, fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(s.jobChan))
	}
}

// worker consumes jobs from the queue until the scheduler stops.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("stopping worker", "worker_id", id)
			return

		case qj := <-s.jobChan:
			s.runJob(qj, id)
		}
	}
}

// runJob executes one job through its full retry budget.
func (s *Scheduler) runJob(qj queuedJob, workerID int) {
	log := s.logger.With(
		"job_id", qj.jobID,
		"task_id", qj.job.ID(),
		"worker_id", workerID,
	)

	for attempt := 1; ; attempt++ {
		log.Info("executing job", "attempt", attempt, "max_attempts", s.config.MaxAttempts)

		err := qj.job.Execute(s.ctx)
		if err == nil {
			log.Info("job completed", "attempt", attempt)
			return
		}

		log.Error("job attempt failed", "attempt", attempt, "error", err)

		if attempt >= s.config.MaxAttempts {
			log.Error("job failed permanently, retry budget exhausted",
				"attempts", attempt,
				"error", err)
			return
		}

		delay := s.retryDelay(attempt)
		log.Info("retrying job", "next_attempt", attempt+1, "delay", delay)

		select {
		case <-s.ctx.Done():
			log.Warn("scheduler stopping, abandoning retries", "completed_attempts", attempt)
			return
		case <-time.After(delay):
		}
	}
}

// retryDelay returns the wait before the attempt following the given
// one. The last configured delay repeats for any further attempts.
func (s *Scheduler) retryDelay(attempt int) time.Duration {
	idx := attempt - 1
	if idx >= len(s.config.RetryDelays) {
		idx = len(s.config.RetryDelays) - 1
	}
	return s.config.RetryDelays[idx]
}
