package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	dErrors "craneguard/pkg/domain-errors"
)

// Event types produced by the heuristic classifier.
const (
	TypeCritical = "critical"
	TypeWarning  = "warning"
	TypeInfo     = "info"
)

// Heuristic is the default Scorer/Prescriber/Classifier. It scores telemetry
// with fixed thresholds so the system stays useful when no external analyzer
// is configured. Severity is urgency scaled to [0,1].
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// reading is the subset of telemetry fields the heuristic inspects. Unknown
// fields in the payload are ignored, absent fields read as zero.
type reading struct {
	VibrationMMs    float64 `json:"vibration_mm_s"`
	TemperatureC    float64 `json:"temperature_c"`
	BrakeHealthPct  float64 `json:"brake_health_pct"`
	OilPressureBar  float64 `json:"oil_pressure_bar"`
	MainBearingWear float64 `json:"main_bearing"`
}

// Thresholds for the fixed scoring rules.
const (
	vibrationWarning  = 4.0
	vibrationCritical = 4.5
	temperatureLimitC = 90.0
	brakeHealthFloor  = 50.0
	bearingWearLimit  = 0.8
)

func parseReading(raw json.RawMessage) (reading, error) {
	var r reading
	if len(raw) == 0 {
		return r, dErrors.New(dErrors.CodeScoringFailed, "telemetry payload is empty")
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, dErrors.Wrap(err, dErrors.CodeScoringFailed, "telemetry payload is not valid JSON")
	}
	return r, nil
}

// urgency derives the 1-10 triage score from a reading.
func urgency(r reading) int {
	switch {
	case r.TemperatureC > temperatureLimitC,
		r.VibrationMMs > vibrationCritical,
		r.MainBearingWear > bearingWearLimit:
		return 9
	case r.VibrationMMs > vibrationWarning:
		return 5
	case r.BrakeHealthPct > 0 && r.BrakeHealthPct < brakeHealthFloor:
		return 5
	default:
		return 1
	}
}

// Score implements Scorer.
func (h *Heuristic) Score(ctx context.Context, rawTelemetry json.RawMessage) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, dErrors.Wrap(err, dErrors.CodeScoringFailed, "scoring aborted")
	}
	r, err := parseReading(rawTelemetry)
	if err != nil {
		return Score{}, err
	}
	u := urgency(r)
	return Score{Severity: float64(u) / 10.0, Urgency: u}, nil
}

// Classify implements Classifier.
func (h *Heuristic) Classify(ctx context.Context, rawTelemetry json.RawMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeScoringFailed, "classification aborted")
	}
	r, err := parseReading(rawTelemetry)
	if err != nil {
		return "", err
	}
	switch u := urgency(r); {
	case u >= 9:
		return TypeCritical, nil
	case u >= 5:
		return TypeWarning, nil
	default:
		return TypeInfo, nil
	}
}

// Prescribe implements Prescriber. The text states the action first, then the
// rationale, mirroring the guidance format operators act on.
func (h *Heuristic) Prescribe(ctx context.Context, componentID, eventType string, score Score) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeScoringFailed, "prescription aborted")
	}
	switch {
	case score.Urgency >= 9:
		return fmt.Sprintf("stop %s and inspect drivetrain immediately; %s condition with urgency %d/10",
			componentID, eventType, score.Urgency), nil
	case score.Urgency >= 5:
		return fmt.Sprintf("reduce load on %s and schedule inspection within 24h; %s condition with urgency %d/10",
			componentID, eventType, score.Urgency), nil
	default:
		return fmt.Sprintf("no action required for %s; continue monitoring", componentID), nil
	}
}
