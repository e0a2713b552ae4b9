package audit

import (
	"time"

	dErrors "craneguard/pkg/domain-errors"
)

// Entry is an immutable record of one action taken by one role. The store
// assigns ID as a strictly increasing surrogate key, so entries for the same
// event are totally ordered and that order matches the causal order of the
// actions. EventID is a weak reference: it must name an existing event (or
// part request) at write time, but the entry outlives any later purge of the
// referenced record.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Role      string
	Action    string
	EventID   string
	Details   Details
}

// Details is the free-form structured payload describing an action
// (old/new status, before/after prescription, rationale). Persisted as JSON.
type Details map[string]any

// Validate guards required fields before an append. There is no update or
// delete to validate: the store interface does not expose them.
func (e *Entry) Validate() error {
	if e.Role == "" {
		return dErrors.New(dErrors.CodeValidation, "audit role is required")
	}
	if e.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "audit action is required")
	}
	if e.EventID == "" {
		return dErrors.New(dErrors.CodeValidation, "audit event reference is required")
	}
	return nil
}
