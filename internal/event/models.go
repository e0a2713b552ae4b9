package event

import (
	"encoding/json"
	"time"

	"craneguard/pkg/domain"
	dErrors "craneguard/pkg/domain-errors"
)

// Status is the lifecycle state of an event.
type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusSuppressed   Status = "suppressed"
)

// ParseStatus validates and returns a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusAcknowledged, StatusResolved, StatusSuppressed:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown status: "+s)
}

// Action names an audited lifecycle operation.
type Action string

const (
	ActionCreate      Action = "create"
	ActionAcknowledge Action = "acknowledge"
	ActionResolve     Action = "resolve"
	ActionSuppress    Action = "suppress"
	ActionReactivate  Action = "reactivate"
	ActionReopen      Action = "reopen"
	ActionReprescribe Action = "represcribe"
)

// transitions is the closed set of legal status changes. Leaving a terminal
// or suppressed state requires the explicit reopen/reactivate actions; a
// transition to the current status is never a legal no-op.
var transitions = map[Status]map[Status]Action{
	StatusActive: {
		StatusAcknowledged: ActionAcknowledge,
		StatusResolved:     ActionResolve,
		StatusSuppressed:   ActionSuppress,
	},
	StatusAcknowledged: {
		StatusResolved:   ActionResolve,
		StatusSuppressed: ActionSuppress,
	},
	StatusResolved: {
		StatusActive: ActionReopen,
	},
	StatusSuppressed: {
		StatusActive: ActionReactivate,
	},
}

// TransitionAction returns the audited action name for a status change, or
// false when the change is not permitted from the current state.
func TransitionAction(from, to Status) (Action, bool) {
	action, ok := transitions[from][to]
	return action, ok
}

// Event is one observed anomaly or condition from a monitored component.
// ID, Timestamp, ComponentID, Type and RawTelemetry are immutable after
// creation. Severity, UrgencyScore and Prescription are nil until scoring
// completes and change only through an audited represcribe. Revision backs
// the optimistic concurrency check: every committed mutation increments it.
type Event struct {
	ID              domain.EventID
	Timestamp       time.Time
	ComponentID     string
	Type            string
	Severity        *float64
	UrgencyScore    *int
	RawTelemetry    json.RawMessage
	Prescription    *string
	Status          Status
	ResolutionNotes string
	Revision        int64
}

// Validate guards the structural invariants the store relies on. Transition
// legality is the lifecycle engine's concern, not checked here.
func (e *Event) Validate() error {
	if e.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "event id is required")
	}
	if e.Timestamp.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "event timestamp is required")
	}
	if e.ComponentID == "" {
		return dErrors.New(dErrors.CodeValidation, "component id is required")
	}
	if e.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "event type is required")
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	if e.ResolutionNotes != "" && e.Status != StatusResolved {
		return dErrors.New(dErrors.CodeValidation, "resolution notes are only allowed on resolved events")
	}
	return nil
}

// Filter narrows event queries. Zero values mean "no constraint".
type Filter struct {
	ComponentID string
	Status      Status
	Since       time.Time
	Until       time.Time
	Limit       int
}
