// Command server runs the crane event-management service: a telemetry
// simulator, the event lifecycle engine, the parts flow, and the HTTP API.
// Without a Postgres DSN everything runs in memory, which is the
// single-process development mode.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"craneguard/internal/audit"
	audithandler "craneguard/internal/audit/handler"
	auditmem "craneguard/internal/audit/store/memory"
	auditpg "craneguard/internal/audit/store/postgres"
	"craneguard/internal/engine"
	enginehandler "craneguard/internal/engine/handler"
	eventmem "craneguard/internal/event/store/memory"
	eventpg "craneguard/internal/event/store/postgres"
	"craneguard/internal/parts"
	partshandler "craneguard/internal/parts/handler"
	partsmem "craneguard/internal/parts/store/memory"
	partspg "craneguard/internal/parts/store/postgres"
	"craneguard/internal/platform/config"
	"craneguard/internal/platform/httpserver"
	"craneguard/internal/platform/logger"
	"craneguard/internal/platform/metrics"
	platformpg "craneguard/internal/platform/postgres"
	platformredis "craneguard/internal/platform/redis"
	"craneguard/internal/scoring"
	"craneguard/internal/telemetry"
	telemetryhandler "craneguard/internal/telemetry/handler"
	telemetrymem "craneguard/internal/telemetry/store/memory"
	telemetryredis "craneguard/internal/telemetry/store/redis"
	httptransport "craneguard/internal/transport/http"
)

// auditStore is the full audit log surface main wires: the engine and parts
// services append, the audit handler reads.
type auditStore interface {
	Append(ctx context.Context, entry *audit.Entry) (int64, error)
	ListByEvent(ctx context.Context, eventID string) ([]*audit.Entry, error)
	ListRecent(ctx context.Context, role string, limit int) ([]*audit.Entry, error)
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var (
		events   engine.EventStore
		auditLog auditStore
		requests parts.RequestStore
		engineTx engine.TxRunner
		partsTx  parts.TxRunner
	)
	if cfg.PostgresDSN != "" {
		db, err := platformpg.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := platformpg.EnsureSchema(ctx, db); err != nil {
			return err
		}

		events = eventpg.New(db)
		auditLog = auditpg.New(db)
		requests = partspg.New(db)
		engineTx = newEnginePostgresTx(db, events, auditLog)
		partsTx = newPartsPostgresTx(db, requests, auditLog)
		log.Info("using postgres storage")
	} else {
		memEvents := eventmem.New()
		memAudit := auditmem.New()
		memRequests := partsmem.New()
		events = memEvents
		auditLog = memAudit
		requests = memRequests
		engineTx = engine.NewMemoryTxRunner(memEvents, memAudit)
		partsTx = parts.NewMemoryTxRunner(memRequests, memAudit)
		log.Info("using in-memory storage")
	}

	var history telemetry.History = telemetrymem.New(cfg.HistoryCapacity)
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		history = telemetryredis.New(redisClient, cfg.HistoryCapacity).ForComponent(cfg.ComponentID)
		log.Info("using redis telemetry history")
	}

	heuristic := scoring.NewHeuristic()
	engineSvc := engine.NewService(engine.Deps{
		Events:         events,
		Audit:          auditLog,
		Tx:             engineTx,
		Scorer:         heuristic,
		Prescriber:     heuristic,
		Logger:         log,
		Metrics:        m,
		AdapterTimeout: cfg.AdapterTimeout,
	})
	partsSvc := parts.NewService(parts.Deps{
		Requests:  requests,
		Audit:     auditLog,
		Tx:        partsTx,
		Inventory: parts.NewInventory(),
		Logger:    log,
		Metrics:   m,
	})
	sim := telemetry.NewSimulator(cfg.ComponentID, cfg.SimInterval, history, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Events:     enginehandler.New(engineSvc, sim, heuristic, log),
		Telemetry:  telemetryhandler.New(sim, history),
		Parts:      partshandler.New(partsSvc, log),
		Audit:      audithandler.New(auditLog),
		Metrics:    m,
		Registry:   registry,
		Logger:     log,
		SigningKey: []byte(cfg.JWTSigningKey),
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "component_id", cfg.ComponentID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
