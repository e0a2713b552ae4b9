package main

import (
	"context"
	"database/sql"
	"time"

	"craneguard/internal/parts"
	dErrors "craneguard/pkg/domain-errors"
	txcontext "craneguard/pkg/platform/tx"
)

// partsPostgresTx commits a part request mutation and its audit entry in one
// database transaction.
type partsPostgresTx struct {
	db       *sql.DB
	requests parts.RequestStore
	log      parts.AuditLog
	timeout  time.Duration
}

func newPartsPostgresTx(db *sql.DB, requests parts.RequestStore, log parts.AuditLog) *partsPostgresTx {
	return &partsPostgresTx{db: db, requests: requests, log: log}
}

func (t *partsPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, requests parts.RequestStore, log parts.AuditLog) error) error {
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

	if err := fn(txcontext.WithTx(ctx, tx), t.requests, t.log); err != nil {
		return err
	}
	return tx.Commit()
}
