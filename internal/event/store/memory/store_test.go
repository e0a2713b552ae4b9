package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"craneguard/internal/event"
	"craneguard/pkg/domain"
	"craneguard/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
}

func (s *StoreSuite) newEvent(componentID string, status event.Status, ts time.Time) *event.Event {
	return &event.Event{
		ID:           domain.NewEventID(),
		Timestamp:    ts,
		ComponentID:  componentID,
		Type:         "overheat",
		RawTelemetry: json.RawMessage(`{"temperature_c": 95.0}`),
		Status:       status,
	}
}

func (s *StoreSuite) TestInsert() {
	ctx := context.Background()

	s.Run("assigns revision 1", func() {
		e := s.newEvent("CRANE-01", event.StatusActive, time.Now())
		s.Require().NoError(s.store.Insert(ctx, e))
		s.Equal(int64(1), e.Revision)

		got, err := s.store.FindByID(ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(e.ID, got.ID)
	})

	s.Run("duplicate id is rejected", func() {
		e := s.newEvent("CRANE-01", event.StatusActive, time.Now())
		s.Require().NoError(s.store.Insert(ctx, e))
		s.ErrorIs(s.store.Insert(ctx, e), sentinel.ErrDuplicateID)
	})
}

func (s *StoreSuite) TestUpdate() {
	ctx := context.Background()

	s.Run("matching revision commits and increments", func() {
		e := s.newEvent("CRANE-01", event.StatusActive, time.Now())
		s.Require().NoError(s.store.Insert(ctx, e))

		updated := *e
		updated.Status = event.StatusAcknowledged
		s.Require().NoError(s.store.Update(ctx, &updated, 1))
		s.Equal(int64(2), updated.Revision)

		got, err := s.store.FindByID(ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(event.StatusAcknowledged, got.Status)
		s.Equal(int64(2), got.Revision)
	})

	s.Run("stale revision conflicts and leaves state untouched", func() {
		e := s.newEvent("CRANE-01", event.StatusActive, time.Now())
		s.Require().NoError(s.store.Insert(ctx, e))

		first := *e
		first.Status = event.StatusAcknowledged
		s.Require().NoError(s.store.Update(ctx, &first, 1))

		stale := *e
		stale.Status = event.StatusSuppressed
		s.ErrorIs(s.store.Update(ctx, &stale, 1), sentinel.ErrConflict)

		got, err := s.store.FindByID(ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(event.StatusAcknowledged, got.Status)
	})

	s.Run("missing event reports not found", func() {
		e := s.newEvent("CRANE-01", event.StatusActive, time.Now())
		s.ErrorIs(s.store.Update(ctx, e, 1), sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestFindByIDReturnsCopy() {
	ctx := context.Background()
	e := s.newEvent("CRANE-01", event.StatusActive, time.Now())
	s.Require().NoError(s.store.Insert(ctx, e))

	got, err := s.store.FindByID(ctx, e.ID)
	s.Require().NoError(err)
	got.Status = event.StatusResolved

	again, err := s.store.FindByID(ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(event.StatusActive, again.Status)
}

func (s *StoreSuite) TestList() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := s.newEvent("CRANE-01", event.StatusActive, base)
	newer := s.newEvent("CRANE-01", event.StatusResolved, base.Add(time.Hour))
	other := s.newEvent("CRANE-02", event.StatusActive, base.Add(2*time.Hour))
	for _, e := range []*event.Event{older, newer, other} {
		if e.Status == event.StatusResolved {
			e.ResolutionNotes = "fixed cooling fan"
		}
		s.Require().NoError(s.store.Insert(ctx, e))
	}

	s.Run("newest first", func() {
		got, err := s.store.List(ctx, event.Filter{})
		s.Require().NoError(err)
		s.Require().Len(got, 3)
		s.Equal(other.ID, got[0].ID)
		s.Equal(newer.ID, got[1].ID)
		s.Equal(older.ID, got[2].ID)
	})

	s.Run("filter by status", func() {
		got, err := s.store.List(ctx, event.Filter{Status: event.StatusActive})
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("filter by component", func() {
		got, err := s.store.List(ctx, event.Filter{ComponentID: "CRANE-02"})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(other.ID, got[0].ID)
	})

	s.Run("time window", func() {
		got, err := s.store.List(ctx, event.Filter{Since: base.Add(30 * time.Minute), Until: base.Add(90 * time.Minute)})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(newer.ID, got[0].ID)
	})

	s.Run("limit", func() {
		got, err := s.store.List(ctx, event.Filter{Limit: 1})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(other.ID, got[0].ID)
	})
}
