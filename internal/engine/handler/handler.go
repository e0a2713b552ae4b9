// Package handler wires the event lifecycle endpoints to the engine.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"craneguard/internal/audit"
	"craneguard/internal/event"
	"craneguard/internal/telemetry"
	"craneguard/pkg/domain"
	dErrors "craneguard/pkg/domain-errors"
	"craneguard/pkg/platform/httputil"
	"craneguard/pkg/requestcontext"
)

// Service defines the lifecycle operations the handler exposes.
type Service interface {
	RecordEvent(ctx context.Context, componentID, eventType string, rawTelemetry json.RawMessage, actorRole string) (*event.Event, error)
	Transition(ctx context.Context, id domain.EventID, target event.Status, actorRole, resolutionNotes string) (*event.Event, error)
	Represcribe(ctx context.Context, id domain.EventID, actorRole string) (*event.Event, error)
	Get(ctx context.Context, id domain.EventID) (*event.Event, error)
	List(ctx context.Context, filter event.Filter) ([]*event.Event, error)
	AuditTrail(ctx context.Context, id domain.EventID) ([]*audit.Entry, error)
}

// TelemetrySource supplies the latest snapshot for on-demand analysis.
type TelemetrySource interface {
	Current() (telemetry.Snapshot, bool)
}

// Classifier derives an event type when the caller does not name one.
type Classifier interface {
	Classify(ctx context.Context, rawTelemetry json.RawMessage) (string, error)
}

// Handler wires event lifecycle endpoints to the engine service.
type Handler struct {
	service    Service
	source     TelemetrySource
	classifier Classifier
	logger     *slog.Logger
}

func New(service Service, source TelemetrySource, classifier Classifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:    service,
		source:     source,
		classifier: classifier,
		logger:     logger,
	}
}

// Register mounts lifecycle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/analyze", h.HandleAnalyze)
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleRecord)
		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Get("/audit", h.HandleAuditTrail)
			r.Post("/acknowledge", h.transitionTo(event.StatusAcknowledged))
			r.Post("/resolve", h.HandleResolve)
			r.Post("/suppress", h.transitionTo(event.StatusSuppressed))
			r.Post("/reactivate", h.transitionTo(event.StatusActive))
			r.Post("/reopen", h.transitionTo(event.StatusActive))
			r.Post("/represcribe", h.HandleReprescribe)
		})
	})
}

// HandleAnalyze handles POST /analyze. With an empty body it scores the live
// telemetry feed; a body may pin the component, type, or telemetry payload.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AnalyzeRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "read request body"))
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "request body is not valid JSON"))
			return
		}
	}

	raw := req.Telemetry
	componentID := req.ComponentID
	if len(raw) == 0 {
		snapshot, ok := h.source.Current()
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "no telemetry available yet"))
			return
		}
		raw, err = snapshot.Raw()
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "encode telemetry snapshot"))
			return
		}
		if componentID == "" {
			componentID = snapshot.ComponentID
		}
	}

	eventType := req.Type
	if eventType == "" {
		eventType, err = h.classifier.Classify(ctx, raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	e, err := h.service.RecordEvent(ctx, componentID, eventType, raw, requestcontext.ActorRole(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "analysis failed",
			"request_id", requestcontext.RequestID(ctx),
			"component_id", componentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromEvent(e))
}

// HandleRecord handles POST /events with an explicit telemetry payload.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[RecordRequest](w, r, h.logger)
	if !ok {
		return
	}

	e, err := h.service.RecordEvent(ctx, req.ComponentID, req.Type, req.Telemetry, requestcontext.ActorRole(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromEvent(e))
}

// HandleList handles GET /events.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, FromEvent(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /events/{eventID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvent(e))
}

// HandleAuditTrail handles GET /events/{eventID}/audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.AuditTrail(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromAuditEntry(entry))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleResolve handles POST /events/{eventID}/resolve; the body carries the
// mandatory resolution notes.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[ResolveRequest](w, r, h.logger)
	if !ok {
		return
	}

	e, err := h.service.Transition(ctx, id, event.StatusResolved, requestcontext.ActorRole(ctx), req.ResolutionNotes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvent(e))
}

// HandleReprescribe handles POST /events/{eventID}/represcribe.
func (h *Handler) HandleReprescribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	e, err := h.service.Represcribe(ctx, id, requestcontext.ActorRole(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvent(e))
}

func (h *Handler) transitionTo(target event.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		e, err := h.service.Transition(ctx, id, target, requestcontext.ActorRole(ctx), "")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromEvent(e))
	}
}

func filterFromQuery(r *http.Request) (event.Filter, error) {
	var filter event.Filter

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := event.ParseStatus(raw)
		if err != nil {
			return event.Filter{}, err
		}
		filter.Status = status
	}
	filter.ComponentID = r.URL.Query().Get("component_id")

	for name, dst := range map[string]*time.Time{"since": &filter.Since, "until": &filter.Until} {
		if raw := r.URL.Query().Get(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return event.Filter{}, dErrors.Wrap(err, dErrors.CodeBadRequest, name+" must be RFC 3339")
			}
			*dst = t
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return event.Filter{}, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}
