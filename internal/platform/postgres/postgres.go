// Package postgres opens the database and bootstraps the schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables and indexes if they do not exist. The audit
// log uses a BIGSERIAL surrogate key so per-event entry order matches commit
// order; event_id is a plain text reference because part request actions share
// the log.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS events (
			id               UUID PRIMARY KEY,
			timestamp        TIMESTAMPTZ NOT NULL,
			component_id     TEXT NOT NULL,
			type             TEXT NOT NULL,
			severity         DOUBLE PRECISION,
			urgency_score    INTEGER,
			raw_telemetry    JSONB NOT NULL,
			prescription     TEXT,
			status           TEXT NOT NULL,
			resolution_notes TEXT,
			revision         BIGINT NOT NULL DEFAULT 1
		);
		CREATE INDEX IF NOT EXISTS idx_events_status ON events (status);
		CREATE INDEX IF NOT EXISTS idx_events_component_id ON events (component_id);
		CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events (timestamp);

		CREATE TABLE IF NOT EXISTS audit_log (
			id        BIGSERIAL PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			role      TEXT NOT NULL,
			action    TEXT NOT NULL,
			event_id  TEXT NOT NULL,
			details   JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_audit_log_event_id ON audit_log (event_id);

		CREATE TABLE IF NOT EXISTS part_requests (
			id             UUID PRIMARY KEY,
			part_name      TEXT NOT NULL,
			requester_role TEXT NOT NULL,
			status         TEXT NOT NULL,
			timestamp      TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_part_requests_status ON part_requests (status);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
