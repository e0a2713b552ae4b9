// Package engine owns event identity and the resolution lifecycle. It
// validates transitions, invokes the scoring/prescription adapter, and writes
// every event mutation together with exactly one audit entry in a single
// atomic unit. It never retries: structural violations and adapter failures
// surface synchronously and leave the store untouched.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"craneguard/internal/audit"
	"craneguard/internal/event"
	"craneguard/internal/platform/metrics"
	"craneguard/internal/scoring"
	"craneguard/pkg/domain"
	dErrors "craneguard/pkg/domain-errors"
	"craneguard/pkg/platform/sentinel"
	"craneguard/pkg/requestcontext"
)

// EventStore is the engine's view of event persistence. Implementations only
// guard structural invariants; transition legality lives here.
type EventStore interface {
	Insert(ctx context.Context, e *event.Event) error
	Update(ctx context.Context, e *event.Event, expectedRevision int64) error
	FindByID(ctx context.Context, id domain.EventID) (*event.Event, error)
	List(ctx context.Context, filter event.Filter) ([]*event.Event, error)
}

// AuditLog is append-only by interface design: no update or delete exists.
type AuditLog interface {
	Append(ctx context.Context, entry *audit.Entry) (int64, error)
	ListByEvent(ctx context.Context, eventID string) ([]*audit.Entry, error)
}

// TxRunner executes fn inside one atomic commit. A crash or concurrent reader
// never observes an event mutation without its audit twin, or vice versa.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, events EventStore, log AuditLog) error) error
}

const defaultAdapterTimeout = 5 * time.Second

// Deps wires the engine's collaborators.
type Deps struct {
	Events     EventStore
	Audit      AuditLog
	Tx         TxRunner
	Scorer     scoring.Scorer
	Prescriber scoring.Prescriber
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	// AdapterTimeout bounds each Score/Prescribe call. A timeout is a
	// scoring failure, not a retry trigger.
	AdapterTimeout time.Duration
}

// Service is the lifecycle engine.
type Service struct {
	events         EventStore
	audit          AuditLog
	tx             TxRunner
	scorer         scoring.Scorer
	prescriber     scoring.Prescriber
	logger         *slog.Logger
	metrics        *metrics.Metrics
	adapterTimeout time.Duration
}

func NewService(deps Deps) *Service {
	timeout := deps.AdapterTimeout
	if timeout == 0 {
		timeout = defaultAdapterTimeout
	}
	return &Service{
		events:         deps.Events,
		audit:          deps.Audit,
		tx:             deps.Tx,
		scorer:         deps.Scorer,
		prescriber:     deps.Prescriber,
		logger:         deps.Logger,
		metrics:        deps.Metrics,
		adapterTimeout: timeout,
	}
}

// RecordEvent scores and prescribes the given telemetry, then commits the new
// event with status=active and its "create" audit entry as one unit. A failed
// attempt leaves no trace: an audit entry without its committed mutation
// would break the pairing invariant.
func (s *Service) RecordEvent(ctx context.Context, componentID, eventType string, rawTelemetry json.RawMessage, actorRole string) (*event.Event, error) {
	if componentID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "component id is required")
	}
	if eventType == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "event type is required")
	}
	if len(rawTelemetry) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "raw telemetry is required")
	}
	if actorRole == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actor role is required")
	}

	score, err := s.score(ctx, rawTelemetry)
	if err != nil {
		return nil, err
	}
	prescription, err := s.prescribe(ctx, componentID, eventType, score)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	e := &event.Event{
		ID:           domain.NewEventID(),
		Timestamp:    now,
		ComponentID:  componentID,
		Type:         eventType,
		Severity:     &score.Severity,
		UrgencyScore: &score.Urgency,
		RawTelemetry: rawTelemetry,
		Prescription: &prescription,
		Status:       event.StatusActive,
		Revision:     1,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context, events EventStore, log AuditLog) error {
		if err := events.Insert(txCtx, e); err != nil {
			return s.translateStoreError(err)
		}
		entry := &audit.Entry{
			Timestamp: now,
			Role:      actorRole,
			Action:    string(event.ActionCreate),
			EventID:   e.ID.String(),
			Details: audit.Details{
				"status":        string(event.StatusActive),
				"component_id":  componentID,
				"type":          eventType,
				"severity":      score.Severity,
				"urgency_score": score.Urgency,
				"prescription":  prescription,
			},
		}
		if _, err := log.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append create audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EventsRecorded.Inc()
		s.metrics.ActiveEvents.Inc()
	}
	s.logger.InfoContext(ctx, "event recorded",
		"event_id", e.ID.String(),
		"component_id", componentID,
		"type", eventType,
		"urgency_score", score.Urgency,
		"actor_role", actorRole,
	)
	return e, nil
}

// Transition moves an event to target if the state machine permits it, and
// commits the status change with its audit entry atomically. A concurrent
// writer that commits first surfaces as CodeConcurrentModification; the
// caller reloads and retries, the engine does not.
func (s *Service) Transition(ctx context.Context, id domain.EventID, target event.Status, actorRole, resolutionNotes string) (*event.Event, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "event id is required")
	}
	if actorRole == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actor role is required")
	}
	if _, err := event.ParseStatus(string(target)); err != nil {
		return nil, err
	}

	current, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateStoreError(err)
	}

	action, ok := event.TransitionAction(current.Status, target)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move %s event to %s", current.Status, target))
	}

	notes := strings.TrimSpace(resolutionNotes)
	if target == event.StatusResolved && notes == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "resolution notes are required to resolve an event")
	}
	if target != event.StatusResolved && notes != "" {
		return nil, dErrors.New(dErrors.CodeValidation, "resolution notes are only allowed when resolving")
	}

	updated := *current
	updated.Status = target
	updated.ResolutionNotes = notes

	now := requestcontext.Now(ctx)
	details := audit.Details{
		"old_status": string(current.Status),
		"new_status": string(target),
	}
	if notes != "" {
		details["resolution_notes"] = notes
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context, events EventStore, log AuditLog) error {
		if err := events.Update(txCtx, &updated, current.Revision); err != nil {
			return s.translateStoreError(err)
		}
		entry := &audit.Entry{
			Timestamp: now,
			Role:      actorRole,
			Action:    string(action),
			EventID:   id.String(),
			Details:   details,
		}
		if _, err := log.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append transition audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(action)).Inc()
		switch {
		case current.Status == event.StatusActive && target != event.StatusActive:
			s.metrics.ActiveEvents.Dec()
		case current.Status != event.StatusActive && target == event.StatusActive:
			s.metrics.ActiveEvents.Inc()
		}
	}
	s.logger.InfoContext(ctx, "event transitioned",
		"event_id", id.String(),
		"action", string(action),
		"old_status", string(current.Status),
		"new_status", string(target),
		"actor_role", actorRole,
	)
	return &updated, nil
}

// Represcribe re-runs the adapter over the event's stored telemetry and
// commits the new severity, urgency and prescription with an audit entry
// recording the before and after values.
func (s *Service) Represcribe(ctx context.Context, id domain.EventID, actorRole string) (*event.Event, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "event id is required")
	}
	if actorRole == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actor role is required")
	}

	current, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateStoreError(err)
	}

	score, err := s.score(ctx, current.RawTelemetry)
	if err != nil {
		return nil, err
	}
	prescription, err := s.prescribe(ctx, current.ComponentID, current.Type, score)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Severity = &score.Severity
	updated.UrgencyScore = &score.Urgency
	updated.Prescription = &prescription

	details := audit.Details{
		"new_severity":      score.Severity,
		"new_urgency_score": score.Urgency,
		"new_prescription":  prescription,
	}
	if current.Severity != nil {
		details["old_severity"] = *current.Severity
	}
	if current.UrgencyScore != nil {
		details["old_urgency_score"] = *current.UrgencyScore
	}
	if current.Prescription != nil {
		details["old_prescription"] = *current.Prescription
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context, events EventStore, log AuditLog) error {
		if err := events.Update(txCtx, &updated, current.Revision); err != nil {
			return s.translateStoreError(err)
		}
		entry := &audit.Entry{
			Timestamp: now,
			Role:      actorRole,
			Action:    string(event.ActionReprescribe),
			EventID:   id.String(),
			Details:   details,
		}
		if _, err := log.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append represcribe audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(event.ActionReprescribe)).Inc()
	}
	s.logger.InfoContext(ctx, "event represcribed",
		"event_id", id.String(),
		"urgency_score", score.Urgency,
		"actor_role", actorRole,
	)
	return &updated, nil
}

// Get returns one event.
func (s *Service) Get(ctx context.Context, id domain.EventID) (*event.Event, error) {
	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateStoreError(err)
	}
	return e, nil
}

// List returns events matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter event.Filter) ([]*event.Event, error) {
	return s.events.List(ctx, filter)
}

// AuditTrail returns the audit entries for an event ordered by surrogate key
// ascending, which matches the causal order of the operations performed.
func (s *Service) AuditTrail(ctx context.Context, id domain.EventID) ([]*audit.Entry, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "event id is required")
	}
	return s.audit.ListByEvent(ctx, id.String())
}

// score runs the adapter with the configured deadline. Any failure, timeout
// included, surfaces as CodeScoringFailed with no partial state committed.
func (s *Service) score(ctx context.Context, rawTelemetry json.RawMessage) (scoring.Score, error) {
	adapterCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
	defer cancel()

	score, err := s.scorer.Score(adapterCtx, rawTelemetry)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ScoringFailures.Inc()
		}
		if dErrors.HasCode(err, dErrors.CodeScoringFailed) {
			return scoring.Score{}, err
		}
		return scoring.Score{}, dErrors.Wrap(err, dErrors.CodeScoringFailed, "scoring adapter failed")
	}
	return score, nil
}

func (s *Service) prescribe(ctx context.Context, componentID, eventType string, score scoring.Score) (string, error) {
	adapterCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
	defer cancel()

	prescription, err := s.prescriber.Prescribe(adapterCtx, componentID, eventType, score)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ScoringFailures.Inc()
		}
		if dErrors.HasCode(err, dErrors.CodeScoringFailed) {
			return "", err
		}
		return "", dErrors.Wrap(err, dErrors.CodeScoringFailed, "prescription adapter failed")
	}
	return prescription, nil
}

// translateStoreError maps infrastructure facts to coded domain errors.
func (s *Service) translateStoreError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "event does not exist")
	case errors.Is(err, sentinel.ErrDuplicateID):
		return dErrors.Wrap(err, dErrors.CodeDuplicateID, "event id already exists")
	case errors.Is(err, sentinel.ErrConflict):
		if s.metrics != nil {
			s.metrics.ConcurrencyConflicts.Inc()
		}
		return dErrors.Wrap(err, dErrors.CodeConcurrentModification, "event was modified concurrently")
	default:
		return err
	}
}
