package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema bootstraps the two durable collections plus the variety
// lookup table. Audit entries carry no foreign key cascade on purpose:
// classifications are never deleted by this system.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS classifications (
	id TEXT PRIMARY KEY,
	correlation_id TEXT NOT NULL,
	submitter_id TEXT NOT NULL,
	image_ref TEXT NOT NULL,
	predicted_variety TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	condition TEXT NOT NULL,
	alternatives JSONB NOT NULL DEFAULT '[]'::jsonb,
	state TEXT NOT NULL,
	processing_latency_ms BIGINT NOT NULL DEFAULT 0,
	model_metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	classified_at TIMESTAMPTZ NOT NULL,
	validated_by TEXT,
	validated_at TIMESTAMPTZ,
	validation_notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_classifications_submitter_classified ON classifications(submitter_id, classified_at DESC);
CREATE INDEX IF NOT EXISTS idx_classifications_state ON classifications(state);
CREATE INDEX IF NOT EXISTS idx_classifications_confidence ON classifications(confidence DESC);

CREATE TABLE IF NOT EXISTS audit_entries (
	id TEXT PRIMARY KEY,
	classification_id TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	action TEXT NOT NULL,
	notes TEXT,
	before_snapshot JSONB,
	after_snapshot JSONB,
	request_ip TEXT,
	request_agent TEXT,
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_entries_classification ON audit_entries(classification_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_entries_action ON audit_entries(action);

CREATE TABLE IF NOT EXISTS varieties (
	common_name TEXT PRIMARY KEY,
	scientific_name TEXT,
	description TEXT,
	active BOOLEAN NOT NULL DEFAULT TRUE
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// retryRead reruns an idempotent read once on infrastructure failure.
// Writes are never retried here; duplicate classifications are worse than
// a surfaced error.
func retryRead(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || errors.Is(err, sql.ErrNoRows) || ctx.Err() != nil {
		return err
	}
	return fn()
}
