package domain

import (
	"github.com/google/uuid"

	dErrors "craneguard/pkg/domain-errors"
)

// Typed IDs prevent cross-entity mix-ups at compile time. All IDs are UUIDs;
// generation needs no coordination with the store and collisions are treated
// as a generator defect, not a retryable condition.

// EventID identifies a recorded telemetry event.
type EventID uuid.UUID

// NewEventID returns a fresh collision-resistant event identifier.
func NewEventID() EventID {
	return EventID(uuid.New())
}

// ParseEventID validates and returns an EventID.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

func (id EventID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id EventID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// PartRequestID identifies a spare-part restock request.
type PartRequestID uuid.UUID

// NewPartRequestID returns a fresh part request identifier.
func NewPartRequestID() PartRequestID {
	return PartRequestID(uuid.New())
}

// ParsePartRequestID validates and returns a PartRequestID.
func ParsePartRequestID(s string) (PartRequestID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PartRequestID{}, err
	}
	return PartRequestID(u), nil
}

func (id PartRequestID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id PartRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Rejection happens at trust boundaries so stores never see
// malformed identifiers.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
