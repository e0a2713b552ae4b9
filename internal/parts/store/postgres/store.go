package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"craneguard/internal/parts"
	"craneguard/pkg/domain"
	"craneguard/pkg/platform/sentinel"
	txcontext "craneguard/pkg/platform/tx"
)

// Store persists part requests in the part_requests table. Mutations pick up
// the ambient transaction from context so they commit with their paired audit
// entry.
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

func (s *Store) Insert(ctx context.Context, r *parts.Request) error {
	if err := r.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO part_requests (id, part_name, requester_role, status, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		r.ID.String(),
		r.PartName,
		r.RequesterRole,
		string(r.Status),
		r.Timestamp,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrDuplicateID
		}
		return fmt.Errorf("insert part request: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id domain.PartRequestID) (*parts.Request, error) {
	query := selectColumns + ` WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, id.String())
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find part request: %w", err)
	}
	return r, nil
}

// UpdateStatus moves a request from one status to another in a single guarded
// statement. Zero rows affected means the request is gone (ErrNotFound) or
// was already moved past the expected status (ErrConflict).
func (s *Store) UpdateStatus(ctx context.Context, id domain.PartRequestID, from, to parts.Status) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE part_requests SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id.String(), string(from),
	)
	if err != nil {
		return fmt.Errorf("update part request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update part request rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		err := s.execer(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM part_requests WHERE id = $1)`, id.String(),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check part request existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

// List returns requests newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, status parts.Status) ([]*parts.Request, error) {
	query := selectColumns + `
		WHERE ($1 = '' OR status = $1)
		ORDER BY timestamp DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list part requests: %w", err)
	}
	defer rows.Close()

	var requests []*parts.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan part request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate part requests: %w", err)
	}
	return requests, nil
}

const selectColumns = `
	SELECT id, part_name, requester_role, status, timestamp
	FROM part_requests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*parts.Request, error) {
	var (
		r  parts.Request
		id string
	)
	err := row.Scan(&id, &r.PartName, &r.RequesterRole, &r.Status, &r.Timestamp)
	if err != nil {
		return nil, err
	}
	parsed, err := domain.ParsePartRequestID(id)
	if err != nil {
		return nil, err
	}
	r.ID = parsed
	return &r, nil
}
