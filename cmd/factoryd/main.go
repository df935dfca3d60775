// Command factoryd runs the agent production factory service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Moeabdelaziz007/axiom-factory/internal/adapter/ethsigner"
	fachttp "github.com/Moeabdelaziz007/axiom-factory/internal/adapter/http"
	facnats "github.com/Moeabdelaziz007/axiom-factory/internal/adapter/nats"
	facotel "github.com/Moeabdelaziz007/axiom-factory/internal/adapter/otel"
	"github.com/Moeabdelaziz007/axiom-factory/internal/adapter/postgres"
	"github.com/Moeabdelaziz007/axiom-factory/internal/adapter/tiered"
	"github.com/Moeabdelaziz007/axiom-factory/internal/adapter/ws"
	"github.com/Moeabdelaziz007/axiom-factory/internal/config"
	"github.com/Moeabdelaziz007/axiom-factory/internal/logger"
	"github.com/Moeabdelaziz007/axiom-factory/internal/service"

	"github.com/Moeabdelaziz007/axiom-factory/internal/adapter/memstore"
	"github.com/Moeabdelaziz007/axiom-factory/internal/domain/stage"
	"github.com/Moeabdelaziz007/axiom-factory/internal/port/events"
	"github.com/Moeabdelaziz007/axiom-factory/internal/port/persistence"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"persistence", cfg.Persistence.Driver,
		"tick_interval", cfg.Factory.TickInterval,
	)

	ctx := context.Background()

	// --- Observability ---
	otelShutdown, err := facotel.Init(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	instruments, err := facotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel instruments: %w", err)
	}

	// --- Persistence ---
	store := newStore(ctx, cfg)

	// --- Events ---
	publisher, closePublisher := newPublisher(ctx, cfg.NATS.URL)
	defer closePublisher()

	// --- Signing ---
	signer, err := ethsigner.New(cfg.Signer.MasterSeed)
	if err != nil {
		return fmt.Errorf("signer: %w", err)
	}

	// --- Factory ---
	hub := ws.NewHub()
	factory, err := service.NewFactory(stage.Default(), store, signer,
		service.WithFailureRate(cfg.Factory.FailureRate),
		service.WithRetention(cfg.Factory.Retention),
		service.WithPublisher(publisher),
		service.WithBroadcaster(hub),
		service.WithInstruments(instruments),
	)
	if err != nil {
		return fmt.Errorf("factory: %w", err)
	}

	scheduler := service.NewScheduler(factory, cfg.Factory.TickInterval)
	scheduler.SetInstruments(instruments)
	if cfg.Factory.AutoStart {
		scheduler.Start()
	}
	defer scheduler.Stop()

	// --- HTTP ---
	handlers := &fachttp.Handlers{Factory: factory, Scheduler: scheduler}

	r := chi.NewRouter()
	r.Use(fachttp.CORS(cfg.Server.CORSOrigin))
	r.Use(fachttp.SecurityHeaders)
	r.Use(fachttp.Logger)
	r.Use(facotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", healthHandler(cfg, scheduler))
	r.Get("/ws", hub.HandleWS)
	fachttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newStore selects the persistence driver. A postgres driver that cannot
// connect degrades to the in-memory store with a warning; the factory treats
// persistence as best effort throughout.
func newStore(ctx context.Context, cfg *config.Config) persistence.Store {
	if cfg.Persistence.Driver != "postgres" {
		return memstore.New()
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, falling back to in-memory persistence", "error", err)
		return memstore.New()
	}
	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		slog.Warn("postgres migrations failed, falling back to in-memory persistence", "error", err)
		pool.Close()
		return memstore.New()
	}
	slog.Info("postgres connected")

	pgStore := postgres.NewStore(pool)
	if cfg.Persistence.CacheSizeMB <= 0 {
		return pgStore
	}

	cached, err := tiered.New(pgStore, cfg.Persistence.CacheSizeMB<<20)
	if err != nil {
		slog.Warn("read cache init failed, using uncached store", "error", err)
		return pgStore
	}
	return cached
}

// newPublisher connects to NATS when a URL is configured. The returned close
// function is always safe to call.
func newPublisher(ctx context.Context, url string) (events.Publisher, func()) {
	if url == "" {
		return events.Noop{}, func() {}
	}

	p, err := facnats.Connect(ctx, url)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
		return events.Noop{}, func() {}
	}
	return p, func() { _ = p.Close() }
}

// healthHandler reports service status and whether the simulation is ticking.
func healthHandler(cfg *config.Config, sched *service.Scheduler) http.HandlerFunc {
	type healthStatus struct {
		Status      string `json:"status"`
		Persistence string `json:"persistence"`
		Running     bool   `json:"running"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{
			Status:      "ok",
			Persistence: cfg.Persistence.Driver,
			Running:     sched.Running(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
