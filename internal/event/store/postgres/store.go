package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"craneguard/internal/event"
	"craneguard/pkg/domain"
	"craneguard/pkg/platform/sentinel"
	txcontext "craneguard/pkg/platform/tx"
)

// Store persists events in the events table. Mutations pick up the ambient
// transaction from context so they commit in the same atomic unit as the
// paired audit append. Legality of status changes is the lifecycle engine's
// concern; this store only guards structural invariants.
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

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Insert adds a new event. A primary key collision maps to
// sentinel.ErrDuplicateID; given collision-resistant id generation it signals
// a generator defect rather than a retryable condition.
func (s *Store) Insert(ctx context.Context, e *event.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Revision == 0 {
		e.Revision = 1
	}

	query := `
		INSERT INTO events (
			id, timestamp, component_id, type, severity, urgency_score,
			raw_telemetry, prescription, status, resolution_notes, revision
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		e.ID.String(),
		e.Timestamp,
		e.ComponentID,
		e.Type,
		e.Severity,
		e.UrgencyScore,
		[]byte(e.RawTelemetry),
		e.Prescription,
		string(e.Status),
		nullNotes(e.ResolutionNotes),
		e.Revision,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicateID
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Update applies the mutable fields if the stored revision still matches
// expectedRevision, incrementing the revision in the same statement. Zero rows
// affected means either the event is gone (ErrNotFound) or another writer
// committed first (ErrConflict).
func (s *Store) Update(ctx context.Context, e *event.Event, expectedRevision int64) error {
	if err := e.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE events
		SET severity = $1, urgency_score = $2, prescription = $3,
		    status = $4, resolution_notes = $5, revision = revision + 1
		WHERE id = $6 AND revision = $7
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		e.Severity,
		e.UrgencyScore,
		e.Prescription,
		string(e.Status),
		nullNotes(e.ResolutionNotes),
		e.ID.String(),
		expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		err := s.execer(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, e.ID.String(),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check event existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	e.Revision = expectedRevision + 1
	return nil
}

// FindByID returns the stored event.
func (s *Store) FindByID(ctx context.Context, id domain.EventID) (*event.Event, error) {
	query := selectColumns + ` WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, id.String())
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	return e, nil
}

// List returns events matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter event.Filter) ([]*event.Event, error) {
	query := selectColumns + `
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR component_id = $2)
		  AND ($3::timestamptz IS NULL OR timestamp >= $3)
		  AND ($4::timestamptz IS NULL OR timestamp <= $4)
		ORDER BY timestamp DESC
		LIMIT $5
	`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.execer(ctx).QueryContext(ctx, query,
		string(filter.Status),
		filter.ComponentID,
		nullTime(filter.Since),
		nullTime(filter.Until),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

const selectColumns = `
	SELECT id, timestamp, component_id, type, severity, urgency_score,
	       raw_telemetry, prescription, status, resolution_notes, revision
	FROM events`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*event.Event, error) {
	var (
		e     event.Event
		id    string
		raw   []byte
		notes sql.NullString
	)
	err := row.Scan(
		&id,
		&e.Timestamp,
		&e.ComponentID,
		&e.Type,
		&e.Severity,
		&e.UrgencyScore,
		&raw,
		&e.Prescription,
		&e.Status,
		&notes,
		&e.Revision,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := domain.ParseEventID(id)
	if err != nil {
		return nil, err
	}
	e.ID = parsed
	e.RawTelemetry = raw
	if notes.Valid {
		e.ResolutionNotes = notes.String
	}
	return &e, nil
}

func nullNotes(notes string) sql.NullString {
	if notes == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: notes, Valid: true}
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
