// Package parts tracks spare part restock requests and the on-site stock
// they replenish. Requests follow a two-step flow: anyone on the maintenance
// side files one, the owner approves it, and approval lands stock instantly.
package parts

import (
	"time"

	"craneguard/pkg/domain"
	dErrors "craneguard/pkg/domain-errors"
)

// Status is the lifecycle state of a restock request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusApproved:
		return Status(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown part request status: "+raw)
	}
}

// Request is one restock request for a named part.
type Request struct {
	ID            domain.PartRequestID
	PartName      string
	RequesterRole string
	Status        Status
	Timestamp     time.Time
}

func (r *Request) Validate() error {
	if r.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "part request id is required")
	}
	if r.PartName == "" {
		return dErrors.New(dErrors.CodeValidation, "part name is required")
	}
	if r.RequesterRole == "" {
		return dErrors.New(dErrors.CodeValidation, "requester role is required")
	}
	if _, err := ParseStatus(string(r.Status)); err != nil {
		return err
	}
	if r.Timestamp.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "timestamp is required")
	}
	return nil
}
