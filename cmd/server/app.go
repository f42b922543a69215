package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmoretti/agentq-api/internal/config"
	"github.com/dmoretti/agentq-api/internal/platform/gemini"
	"github.com/dmoretti/agentq-api/internal/platform/postgres"
	"github.com/dmoretti/agentq-api/internal/service"
	"github.com/dmoretti/agentq-api/internal/task"
)

// application holds the wired dependency graph of the server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	scheduler *task.Scheduler
	queue     *task.Queue
	streamer  *service.Streamer
	watcher   *service.Watcher

	taskStore         *postgres.PostgresTaskStore
	conversationStore *postgres.PostgresConversationStore
	messageStore      *postgres.PostgresMessageStore
}

// newApplication builds every component from configuration: stores
// over the shared pool, the Gemini backend, the background scheduler,
// and the services that tie them together.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	taskStore := postgres.NewPostgresTaskStore(db)
	conversationStore := postgres.NewPostgresConversationStore(db)
	messageStore := postgres.NewPostgresMessageStore(db)

	backend, err := gemini.NewGeminiBackend(ctx, logger, cfg.Agent)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent backend: %w", err)
	}

	scheduler := task.NewScheduler(schedulerConfig(cfg.Scheduler), logger)

	queue, err := task.NewQueue(taskStore, backend, scheduler, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task queue: %w", err)
	}

	streamer, err := service.NewStreamer(conversationStore, messageStore, backend, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create streamer: %w", err)
	}

	watcher, err := service.NewWatcher(taskStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &application{
		config:            cfg,
		logger:            logger,
		db:                db,
		scheduler:         scheduler,
		queue:             queue,
		streamer:          streamer,
		watcher:           watcher,
		taskStore:         taskStore,
		conversationStore: conversationStore,
		messageStore:      messageStore,
	}, nil
}

// schedulerConfig converts the loaded configuration into the
// scheduler's own config type.
func schedulerConfig(cfg config.SchedulerConfig) task.SchedulerConfig {
	delays := make([]time.Duration, 0, len(cfg.RetryDelaysSeconds))
	for _, s := range cfg.RetryDelaysSeconds {
		delays = append(delays, time.Duration(s)*time.Second)
	}

	return task.SchedulerConfig{
		WorkerCount: cfg.WorkerCount,
		QueueSize:   cfg.QueueSize,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelays: delays,
	}
}
