package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"craneguard/internal/audit"
	txcontext "craneguard/pkg/platform/tx"
)

// Store persists audit entries in the audit_log table. The table is
// append-only: this type exposes no update or delete, and the surrogate key
// comes from a BIGSERIAL so per-event entry order matches commit order.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer returns the ambient transaction when one is present in the context
// so appends join the caller's atomic unit.
func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts an entry and returns its assigned surrogate key.
func (s *Store) Append(ctx context.Context, entry *audit.Entry) (int64, error) {
	if err := entry.Validate(); err != nil {
		return 0, err
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return 0, fmt.Errorf("marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_log (timestamp, role, action, event_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = s.execer(ctx).QueryRowContext(ctx, query,
		entry.Timestamp,
		entry.Role,
		entry.Action,
		entry.EventID,
		details,
	).Scan(&entry.ID)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	return entry.ID, nil
}

// ListByEvent returns entries for one event ordered by surrogate key ascending.
func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]*audit.Entry, error) {
	query := `
		SELECT id, timestamp, role, action, event_id, details
		FROM audit_log
		WHERE event_id = $1
		ORDER BY id ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListRecent returns up to limit entries, newest first, optionally filtered
// by role.
func (s *Store) ListRecent(ctx context.Context, role string, limit int) ([]*audit.Entry, error) {
	query := `
		SELECT id, timestamp, role, action, event_id, details
		FROM audit_log
		WHERE ($1 = '' OR role = $1)
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, role, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]*audit.Entry, error) {
	var entries []*audit.Entry
	for rows.Next() {
		var (
			entry   audit.Entry
			details []byte
		)
		err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.Role,
			&entry.Action,
			&entry.EventID,
			&details,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
