// Package handler exposes the site-wide audit log.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"craneguard/internal/audit"
	dErrors "craneguard/pkg/domain-errors"
	"craneguard/pkg/platform/httputil"
)

// Log is the read side of the audit log.
type Log interface {
	ListRecent(ctx context.Context, role string, limit int) ([]*audit.Entry, error)
}

const defaultLimit = 100

// Handler serves audit log reads.
type Handler struct {
	log Log
}

func New(log Log) *Handler {
	return &Handler{log: log}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit_log", h.HandleList)
}

// HandleList handles GET /audit_log, newest entries first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.log.ListRecent(r.Context(), r.URL.Query().Get("role"), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, EntryResponse{
			ID:        entry.ID,
			Timestamp: entry.Timestamp,
			Role:      entry.Role,
			Action:    entry.Action,
			EventID:   entry.EventID,
			Details:   entry.Details,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// EntryResponse is the wire form of an audit entry.
type EntryResponse struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Role      string         `json:"role"`
	Action    string         `json:"action"`
	EventID   string         `json:"event_id"`
	Details   map[string]any `json:"details"`
}
