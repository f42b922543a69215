package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dmoretti/agentq-api/migrations"
	"github.com/pressly/goose/v3"
)

const migrationTableName = "schema_migrations"

// slogGooseLogger adapts goose's logger to structured logging.
type slogGooseLogger struct{}

// Printf implements the goose.Logger Printf method by forwarding
// messages to slog.Info.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error
// messages to slog.Error. It does not exit; goose's return value
// carries the failure.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// runMigrations applies the embedded schema migrations at startup.
func runMigrations(db *sql.DB) error {
	goose.SetLogger(&slogGooseLogger{})
	goose.SetTableName(migrationTableName)
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	slog.Info("Database migrations applied")
	return nil
}
