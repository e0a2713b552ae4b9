//go:generate mockgen -source=adapter.go -destination=mocks/mocks.go -package=mocks Scorer,Prescriber

// Package scoring defines the pluggable analysis boundary. The surrounding
// system supplies implementations (an LLM-backed analyzer in production); the
// lifecycle engine treats them as black boxes, bounds them with a timeout,
// and never retries them.
package scoring

import (
	"context"
	"encoding/json"
)

// Score is the result of analyzing one raw telemetry payload. Severity is a
// real-valued measure; Urgency is the derived 1-10 integer used for triage.
type Score struct {
	Severity float64
	Urgency  int
}

// Scorer maps raw telemetry to a severity/urgency score.
type Scorer interface {
	Score(ctx context.Context, rawTelemetry json.RawMessage) (Score, error)
}

// Prescriber maps event context to recommended remediation text.
type Prescriber interface {
	Prescribe(ctx context.Context, componentID, eventType string, score Score) (string, error)
}

// Classifier assigns a categorical event type to raw telemetry. Used by the
// ingestion surface when the feed does not label readings itself.
type Classifier interface {
	Classify(ctx context.Context, rawTelemetry json.RawMessage) (string, error)
}
