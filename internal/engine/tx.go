package engine

import (
	"context"
	"sync"
)

// MemoryTxRunner serializes commits over in-memory stores. It backs unit
// tests and single-process deployments without Postgres. All-or-nothing
// semantics hold because the engine performs every fallible store operation
// before the audit append, and the in-memory audit append cannot fail after
// validation; the mutex guarantees no reader or writer observes a half-done
// pair.
type MemoryTxRunner struct {
	mu     sync.Mutex
	events EventStore
	log    AuditLog
}

func NewMemoryTxRunner(events EventStore, log AuditLog) *MemoryTxRunner {
	return &MemoryTxRunner{events: events, log: log}
}

func (r *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, events EventStore, log AuditLog) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, r.events, r.log)
}
