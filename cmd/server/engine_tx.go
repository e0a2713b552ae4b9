package main

import (
	"context"
	"database/sql"
	"time"

	"craneguard/internal/engine"
	dErrors "craneguard/pkg/domain-errors"
	txcontext "craneguard/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// enginePostgresTx commits an event mutation and its audit entry in one
// database transaction. The transaction travels in the context; the stores
// pick it up and execute against it instead of the pool.
type enginePostgresTx struct {
	db      *sql.DB
	events  engine.EventStore
	log     engine.AuditLog
	timeout time.Duration
}

func newEnginePostgresTx(db *sql.DB, events engine.EventStore, log engine.AuditLog) *enginePostgresTx {
	return &enginePostgresTx{db: db, events: events, log: log}
}

func (t *enginePostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, events engine.EventStore, log engine.AuditLog) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), t.events, t.log); err != nil {
		return err
	}
	return tx.Commit()
}
