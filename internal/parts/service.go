package parts

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"craneguard/internal/audit"
	"craneguard/internal/platform/metrics"
	"craneguard/pkg/domain"
	dErrors "craneguard/pkg/domain-errors"
	"craneguard/pkg/platform/sentinel"
	"craneguard/pkg/requestcontext"
)

const (
	ActionRequest = "request_part"
	ActionApprove = "approve_part"
)

// RequestStore is the service's view of part request persistence.
type RequestStore interface {
	Insert(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, id domain.PartRequestID) (*Request, error)
	UpdateStatus(ctx context.Context, id domain.PartRequestID, from, to Status) error
	List(ctx context.Context, status Status) ([]*Request, error)
}

// AuditLog is the append-only sink for part request actions.
type AuditLog interface {
	Append(ctx context.Context, entry *audit.Entry) (int64, error)
}

// TxRunner executes fn inside one atomic commit so a request mutation and its
// audit entry land together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, requests RequestStore, log AuditLog) error) error
}

// Deps wires the service's collaborators.
type Deps struct {
	Requests  RequestStore
	Audit     AuditLog
	Tx        TxRunner
	Inventory *Inventory
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Service owns the restock request flow.
type Service struct {
	requests  RequestStore
	audit     AuditLog
	tx        TxRunner
	inventory *Inventory
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(deps Deps) *Service {
	return &Service{
		requests:  deps.Requests,
		audit:     deps.Audit,
		tx:        deps.Tx,
		inventory: deps.Inventory,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
}

// RequestRestock files a pending restock request and its audit entry as one
// unit. Parts not currently stocked may still be requested.
func (s *Service) RequestRestock(ctx context.Context, partName, actorRole string) (*Request, error) {
	if partName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "part name is required")
	}
	if actorRole == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actor role is required")
	}

	now := requestcontext.Now(ctx)
	r := &Request{
		ID:            domain.NewPartRequestID(),
		PartName:      partName,
		RequesterRole: actorRole,
		Status:        StatusPending,
		Timestamp:     now,
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context, requests RequestStore, log AuditLog) error {
		if err := requests.Insert(txCtx, r); err != nil {
			return translateStoreError(err)
		}
		entry := &audit.Entry{
			Timestamp: now,
			Role:      actorRole,
			Action:    ActionRequest,
			EventID:   r.ID.String(),
			Details:   audit.Details{"part_name": partName},
		}
		if _, err := log.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append part request audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PartRequestsTotal.Inc()
	}
	s.logger.InfoContext(ctx, "part restock requested",
		"request_id", r.ID.String(),
		"part_name", partName,
		"actor_role", actorRole,
	)
	return r, nil
}

const restockQuantity = 5

// Approve moves a pending request to approved and lands stock for the part.
// A request that is already approved reports CodeInvalidTransition. Stock is
// adjusted only after the status change and its audit entry commit.
func (s *Service) Approve(ctx context.Context, id domain.PartRequestID, actorRole string) (*Request, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "part request id is required")
	}
	if actorRole == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actor role is required")
	}

	current, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err)
	}
	if current.Status != StatusPending {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "part request is already "+string(current.Status))
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context, requests RequestStore, log AuditLog) error {
		if err := requests.UpdateStatus(txCtx, id, StatusPending, StatusApproved); err != nil {
			return translateStoreError(err)
		}
		entry := &audit.Entry{
			Timestamp: now,
			Role:      actorRole,
			Action:    ActionApprove,
			EventID:   id.String(),
			Details: audit.Details{
				"part_name":   current.PartName,
				"old_status":  string(StatusPending),
				"new_status":  string(StatusApproved),
				"restock_qty": restockQuantity,
			},
		}
		if _, err := log.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append part approval audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	newStock, known := s.inventory.Adjust(current.PartName, restockQuantity)
	approved := *current
	approved.Status = StatusApproved

	s.logger.InfoContext(ctx, "part request approved",
		"request_id", id.String(),
		"part_name", current.PartName,
		"stock_known", known,
		"new_stock", newStock,
		"actor_role", actorRole,
	)
	return &approved, nil
}

// List returns requests newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status) ([]*Request, error) {
	return s.requests.List(ctx, status)
}

// Stock returns current inventory levels.
func (s *Service) Stock() map[string]int {
	return s.inventory.Stock()
}

func translateStoreError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "part request does not exist")
	case errors.Is(err, sentinel.ErrDuplicateID):
		return dErrors.Wrap(err, dErrors.CodeDuplicateID, "part request id already exists")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConcurrentModification, "part request was modified concurrently")
	default:
		return err
	}
}

// MemoryTxRunner serializes commits over in-memory stores, mirroring the
// engine's runner.
type MemoryTxRunner struct {
	mu       sync.Mutex
	requests RequestStore
	log      AuditLog
}

func NewMemoryTxRunner(requests RequestStore, log AuditLog) *MemoryTxRunner {
	return &MemoryTxRunner{requests: requests, log: log}
}

func (r *MemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, requests RequestStore, log AuditLog) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, r.requests, r.log)
}
