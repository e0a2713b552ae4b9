package handler_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	auditmem "craneguard/internal/audit/store/memory"
	"craneguard/internal/engine"
	"craneguard/internal/engine/handler"
	eventmem "craneguard/internal/event/store/memory"
	"craneguard/internal/platform/metrics"
	"craneguard/internal/scoring"
	"craneguard/internal/telemetry"
	"craneguard/pkg/testutil"
)

type stubSource struct {
	snapshot telemetry.Snapshot
	ok       bool
}

func (s *stubSource) Current() (telemetry.Snapshot, bool) { return s.snapshot, s.ok }

type HandlerSuite struct {
	suite.Suite
	source *stubSource
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	events := eventmem.New()
	auditLog := auditmem.New()
	heuristic := scoring.NewHeuristic()
	svc := engine.NewService(engine.Deps{
		Events:     events,
		Audit:      auditLog,
		Tx:         engine.NewMemoryTxRunner(events, auditLog),
		Scorer:     heuristic,
		Prescriber: heuristic,
		Logger:     slog.New(slog.DiscardHandler),
		Metrics:    metrics.New(prometheus.NewRegistry()),
	})

	s.source = &stubSource{
		snapshot: telemetry.Snapshot{
			Timestamp:    time.Now(),
			ComponentID:  "CRANE-01",
			TemperatureC: 95.0,
		},
		ok: true,
	}
	s.router = chi.NewRouter()
	handler.New(svc, s.source, heuristic, slog.New(slog.DiscardHandler)).Register(s.router)
}

func (s *HandlerSuite) record(componentID string) handler.EventResponse {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/events", map[string]any{
		"component_id": componentID,
		"type":         "overheat",
		"telemetry":    json.RawMessage(`{"temperature_c": 95.0}`),
	})
	rr := testutil.DoRequest(s.router, testutil.WithActorRole(req, "technician"))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return *testutil.UnmarshalResponse[handler.EventResponse](s.T(), rr)
}

func (s *HandlerSuite) TestRecord() {
	e := s.record("CRANE-01")
	s.Equal("active", e.Status)
	s.Equal("CRANE-01", e.ComponentID)
	s.Require().NotNil(e.UrgencyScore)
	s.Equal(9, *e.UrgencyScore)
	s.NotNil(e.Prescription)
}

func (s *HandlerSuite) TestAnalyze() {
	s.Run("empty body scores the live feed", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/analyze")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)

		e := testutil.UnmarshalResponse[handler.EventResponse](s.T(), rr)
		s.Equal("CRANE-01", e.ComponentID)
		s.Equal("critical", e.Type)
	})

	s.Run("without telemetry available reports unavailable", func() {
		s.source.ok = false
		defer func() { s.source.ok = true }()

		req := testutil.NewRequest(s.T(), http.MethodPost, "/analyze")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
		testutil.AssertErrorCode(s.T(), rr, "unavailable")
	})
}

func (s *HandlerSuite) TestGetAndList() {
	created := s.record("CRANE-01")

	s.Run("get by id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/events/"+created.ID))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("malformed id is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/events/not-a-uuid"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertErrorCode(s.T(), rr, "invalid_input")
	})

	s.Run("unknown id reports not found", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/events/00000000-0000-0000-0000-000000000001"))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("list with status filter", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/events/?status=active"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		events := testutil.UnmarshalResponse[[]handler.EventResponse](s.T(), rr)
		s.NotEmpty(*events)
	})

	s.Run("bogus status filter is rejected", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/events/?status=bogus"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestLifecycle() {
	created := s.record("CRANE-01")

	s.Run("acknowledge", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/events/"+created.ID+"/acknowledge")
		rr := testutil.DoRequest(s.router, testutil.WithActorRole(req, "technician"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		e := testutil.UnmarshalResponse[handler.EventResponse](s.T(), rr)
		s.Equal("acknowledged", e.Status)
	})

	s.Run("resolve without notes is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/events/"+created.ID+"/resolve", map[string]string{})
		rr := testutil.DoRequest(s.router, testutil.WithActorRole(req, "maintenance_lead"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertErrorCode(s.T(), rr, "validation")
	})

	s.Run("resolve with notes", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/events/"+created.ID+"/resolve",
			map[string]string{"resolution_notes": "fixed cooling fan"})
		rr := testutil.DoRequest(s.router, testutil.WithActorRole(req, "maintenance_lead"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		e := testutil.UnmarshalResponse[handler.EventResponse](s.T(), rr)
		s.Equal("resolved", e.Status)
		s.Equal("fixed cooling fan", e.ResolutionNotes)
	})

	s.Run("illegal transition maps to conflict", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/events/"+created.ID+"/acknowledge")
		rr := testutil.DoRequest(s.router, testutil.WithActorRole(req, "technician"))
		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
		testutil.AssertErrorCode(s.T(), rr, "invalid_transition")
	})

	s.Run("audit trail lists actions in order", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/events/"+created.ID+"/audit"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		entries := testutil.UnmarshalResponse[[]handler.AuditEntryResponse](s.T(), rr)
		s.Require().Len(*entries, 3)
		s.Equal("create", (*entries)[0].Action)
		s.Equal("acknowledge", (*entries)[1].Action)
		s.Equal("resolve", (*entries)[2].Action)
	})
}

func (s *HandlerSuite) TestReprescribe() {
	created := s.record("CRANE-01")

	req := testutil.NewRequest(s.T(), http.MethodPost, "/events/"+created.ID+"/represcribe")
	rr := testutil.DoRequest(s.router, testutil.WithActorRole(req, "owner"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	e := testutil.UnmarshalResponse[handler.EventResponse](s.T(), rr)
	s.Equal(created.Revision+1, e.Revision)
}
