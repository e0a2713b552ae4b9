package handler

import (
	"encoding/json"
	"time"

	"craneguard/internal/audit"
	"craneguard/internal/event"
)

// AnalyzeRequest optionally pins what gets analyzed; every field defaults to
// the live feed.
type AnalyzeRequest struct {
	ComponentID string          `json:"component_id"`
	Type        string          `json:"type"`
	Telemetry   json.RawMessage `json:"telemetry"`
}

// RecordRequest records an event from an explicit telemetry payload.
type RecordRequest struct {
	ComponentID string          `json:"component_id"`
	Type        string          `json:"type"`
	Telemetry   json.RawMessage `json:"telemetry"`
}

// ResolveRequest carries the mandatory resolution notes.
type ResolveRequest struct {
	ResolutionNotes string `json:"resolution_notes"`
}

// EventResponse is the wire form of an event.
type EventResponse struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	ComponentID     string          `json:"component_id"`
	Type            string          `json:"type"`
	Severity        *float64        `json:"severity"`
	UrgencyScore    *int            `json:"urgency_score"`
	RawTelemetry    json.RawMessage `json:"raw_telemetry"`
	Prescription    *string         `json:"prescription"`
	Status          string          `json:"status"`
	ResolutionNotes string          `json:"resolution_notes,omitempty"`
	Revision        int64           `json:"revision"`
}

func FromEvent(e *event.Event) EventResponse {
	return EventResponse{
		ID:              e.ID.String(),
		Timestamp:       e.Timestamp,
		ComponentID:     e.ComponentID,
		Type:            e.Type,
		Severity:        e.Severity,
		UrgencyScore:    e.UrgencyScore,
		RawTelemetry:    e.RawTelemetry,
		Prescription:    e.Prescription,
		Status:          string(e.Status),
		ResolutionNotes: e.ResolutionNotes,
		Revision:        e.Revision,
	}
}

// AuditEntryResponse is the wire form of an audit entry.
type AuditEntryResponse struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Role      string         `json:"role"`
	Action    string         `json:"action"`
	EventID   string         `json:"event_id"`
	Details   map[string]any `json:"details"`
}

func FromAuditEntry(entry *audit.Entry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
		Role:      entry.Role,
		Action:    entry.Action,
		EventID:   entry.EventID,
		Details:   entry.Details,
	}
}
