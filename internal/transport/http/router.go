// Package httptransport assembles the HTTP API. It is a thin layer: per-domain
// handlers own their routes, this package owns the shared middleware chain and
// operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"craneguard/internal/platform/metrics"
	"craneguard/pkg/platform/middleware/actor"
	"craneguard/pkg/platform/middleware/requestid"
	"craneguard/pkg/platform/middleware/requesttime"
	"craneguard/pkg/requestcontext"
)

// Registrar mounts a handler's routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs.
type Deps struct {
	Events     Registrar
	Telemetry  Registrar
	Parts      Registrar
	Audit      Registrar
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
	Logger     *slog.Logger
	SigningKey []byte
}

// NewRouter wires the middleware chain, the API namespace, and the
// operational endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(observeMiddleware(deps.Metrics, deps.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(actor.Middleware(deps.SigningKey, deps.Logger))
		deps.Events.Register(r)
		deps.Telemetry.Register(r)
		deps.Parts.Register(r)
		deps.Audit.Register(r)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	return r
}

const requestTimeout = 60 * time.Second

// observeMiddleware logs every request and observes its latency by route
// pattern so metrics cardinality stays bounded regardless of path parameters.
func observeMiddleware(m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			elapsed := time.Since(start)
			if m != nil {
				m.HTTPDuration.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).
					Observe(elapsed.Seconds())
			}
			if logger != nil {
				logger.InfoContext(r.Context(), "request served",
					"method", r.Method,
					"route", route,
					"status", ww.Status(),
					"duration_ms", elapsed.Milliseconds(),
					"request_id", requestcontext.RequestID(r.Context()),
				)
			}
		})
	}
}
