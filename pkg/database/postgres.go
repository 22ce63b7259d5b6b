package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/yuga-labs/yuga-planner-api/pkg/config"
)

const solverRunsSchema = `
CREATE TABLE IF NOT EXISTS solver_runs (
	id            TEXT PRIMARY KEY,
	job_id        TEXT NOT NULL UNIQUE,
	feasible      BOOLEAN NOT NULL,
	hard_score    DOUBLE PRECISION NOT NULL,
	soft_score    DOUBLE PRECISION NOT NULL,
	moves         BIGINT NOT NULL,
	improvements  BIGINT NOT NULL,
	assignments   JSONB NOT NULL DEFAULT '[]',
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS solver_runs_finished_at_idx ON solver_runs (finished_at DESC);
`

// NewPostgres opens a pooled PostgreSQL connection and verifies it.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the solver history table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, solverRunsSchema); err != nil {
		return fmt.Errorf("ensure solver_runs schema: %w", err)
	}
	return nil
}
