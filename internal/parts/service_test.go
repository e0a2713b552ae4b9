package parts_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	auditmem "craneguard/internal/audit/store/memory"
	"craneguard/internal/parts"
	partsmem "craneguard/internal/parts/store/memory"
	"craneguard/internal/platform/metrics"
	"craneguard/pkg/domain"
	dErrors "craneguard/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	requests  *partsmem.Store
	audit     *auditmem.Store
	inventory *parts.Inventory
	svc       *parts.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.requests = partsmem.New()
	s.audit = auditmem.New()
	s.inventory = parts.NewInventory()
	s.svc = parts.NewService(parts.Deps{
		Requests:  s.requests,
		Audit:     s.audit,
		Tx:        parts.NewMemoryTxRunner(s.requests, s.audit),
		Inventory: s.inventory,
		Logger:    slog.New(slog.DiscardHandler),
		Metrics:   metrics.New(prometheus.NewRegistry()),
	})
}

func (s *ServiceSuite) TestRequestRestock() {
	ctx := context.Background()

	s.Run("files a pending request with one audit entry", func() {
		r, err := s.svc.RequestRestock(ctx, "Hoist Motor", "maintenance_lead")
		s.Require().NoError(err)
		s.Equal(parts.StatusPending, r.Status)
		s.Equal("maintenance_lead", r.RequesterRole)

		entries, err := s.audit.ListByEvent(ctx, r.ID.String())
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(parts.ActionRequest, entries[0].Action)
		s.Equal("Hoist Motor", entries[0].Details["part_name"])
	})

	s.Run("unstocked parts may be requested", func() {
		r, err := s.svc.RequestRestock(ctx, "Trolley Wheel", "technician")
		s.Require().NoError(err)
		s.Equal(parts.StatusPending, r.Status)
	})

	s.Run("missing fields are rejected", func() {
		_, err := s.svc.RequestRestock(ctx, "", "technician")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.svc.RequestRestock(ctx, "Hoist Motor", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestApprove() {
	ctx := context.Background()

	s.Run("lands stock and audits the approval", func() {
		r, err := s.svc.RequestRestock(ctx, "Hoist Motor", "maintenance_lead")
		s.Require().NoError(err)
		before := s.inventory.Stock()["Hoist Motor"]

		approved, err := s.svc.Approve(ctx, r.ID, "owner")
		s.Require().NoError(err)
		s.Equal(parts.StatusApproved, approved.Status)
		s.Equal(before+5, s.inventory.Stock()["Hoist Motor"])

		entries, err := s.audit.ListByEvent(ctx, r.ID.String())
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		s.Equal(parts.ActionApprove, entries[1].Action)
		s.Equal("owner", entries[1].Role)
	})

	s.Run("approving twice is rejected without stock change", func() {
		r, err := s.svc.RequestRestock(ctx, "Hydraulic Filter", "maintenance_lead")
		s.Require().NoError(err)
		_, err = s.svc.Approve(ctx, r.ID, "owner")
		s.Require().NoError(err)
		stock := s.inventory.Stock()["Hydraulic Filter"]

		_, err = s.svc.Approve(ctx, r.ID, "owner")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		s.Equal(stock, s.inventory.Stock()["Hydraulic Filter"])
	})

	s.Run("unknown request reports not found", func() {
		_, err := s.svc.Approve(ctx, domain.NewPartRequestID(), "owner")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("approving an unstocked part leaves inventory untouched", func() {
		r, err := s.svc.RequestRestock(ctx, "Trolley Wheel", "technician")
		s.Require().NoError(err)

		approved, err := s.svc.Approve(ctx, r.ID, "owner")
		s.Require().NoError(err)
		s.Equal(parts.StatusApproved, approved.Status)
		s.NotContains(s.inventory.Stock(), "Trolley Wheel")
	})
}

func (s *ServiceSuite) TestList() {
	ctx := context.Background()

	first, err := s.svc.RequestRestock(ctx, "Hoist Motor", "maintenance_lead")
	s.Require().NoError(err)
	second, err := s.svc.RequestRestock(ctx, "Hydraulic Filter", "technician")
	s.Require().NoError(err)
	_, err = s.svc.Approve(ctx, first.ID, "owner")
	s.Require().NoError(err)

	s.Run("all requests", func() {
		got, err := s.svc.List(ctx, "")
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("pending only", func() {
		got, err := s.svc.List(ctx, parts.StatusPending)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(second.ID, got[0].ID)
	})
}
