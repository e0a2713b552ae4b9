// Package handler wires the parts and inventory endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"craneguard/internal/parts"
	"craneguard/pkg/domain"
	"craneguard/pkg/platform/httputil"
	"craneguard/pkg/requestcontext"
)

// Service defines the parts operations the handler exposes.
type Service interface {
	RequestRestock(ctx context.Context, partName, actorRole string) (*parts.Request, error)
	Approve(ctx context.Context, id domain.PartRequestID, actorRole string) (*parts.Request, error)
	List(ctx context.Context, status parts.Status) ([]*parts.Request, error)
	Stock() map[string]int
}

// Handler wires parts endpoints to the parts service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts parts and inventory endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/inventory", h.HandleInventory)
	r.Route("/parts", func(r chi.Router) {
		r.Post("/request", h.HandleRequest)
		r.Get("/requests", h.HandleList)
		r.Post("/approve/{requestID}", h.HandleApprove)
	})
}

// HandleInventory handles GET /inventory.
func (h *Handler) HandleInventory(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Stock())
}

// HandleRequest handles POST /parts/request.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[RestockRequest](w, r, h.logger)
	if !ok {
		return
	}

	created, err := h.service.RequestRestock(ctx, req.Part, requestcontext.ActorRole(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRequest(created))
}

// HandleList handles GET /parts/requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var status parts.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := parts.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status = parsed
	}

	requests, err := h.service.List(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]RequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, FromRequest(req))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleApprove handles POST /parts/approve/{requestID}.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParsePartRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	approved, err := h.service.Approve(ctx, id, requestcontext.ActorRole(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequest(approved))
}

// RestockRequest names the part to restock.
type RestockRequest struct {
	Part string `json:"part"`
}

// RequestResponse is the wire form of a part request.
type RequestResponse struct {
	ID            string    `json:"id"`
	PartName      string    `json:"part_name"`
	RequesterRole string    `json:"requester_role"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

func FromRequest(r *parts.Request) RequestResponse {
	return RequestResponse{
		ID:            r.ID.String(),
		PartName:      r.PartName,
		RequesterRole: r.RequesterRole,
		Status:        string(r.Status),
		Timestamp:     r.Timestamp,
	}
}
