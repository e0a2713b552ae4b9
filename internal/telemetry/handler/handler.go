// Package handler serves the live telemetry feed and its retained window.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"craneguard/internal/telemetry"
	dErrors "craneguard/pkg/domain-errors"
	"craneguard/pkg/platform/httputil"
)

// Source supplies the latest snapshot.
type Source interface {
	Current() (telemetry.Snapshot, bool)
}

// Handler serves telemetry reads.
type Handler struct {
	source  Source
	history telemetry.History
}

func New(source Source, history telemetry.History) *Handler {
	return &Handler{source: source, history: history}
}

// Register mounts telemetry endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/telemetry", h.HandleCurrent)
	r.Get("/history", h.HandleHistory)
}

// HandleCurrent handles GET /telemetry.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.source.Current()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "no telemetry available yet"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

// HandleHistory handles GET /history, oldest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	window, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "read telemetry history"))
		return
	}
	if window == nil {
		window = []telemetry.Snapshot{}
	}
	httputil.WriteJSON(w, http.StatusOK, window)
}
