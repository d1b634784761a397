package main

import (
	"context"
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

	"github.com/agentdeck/agentdeck/internal/adapter/claudecli"
	adhttp "github.com/agentdeck/agentdeck/internal/adapter/http"
	adnats "github.com/agentdeck/agentdeck/internal/adapter/nats"
	"github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/adapter/postgres"
	"github.com/agentdeck/agentdeck/internal/adapter/ristretto"
	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/engine"
	"github.com/agentdeck/agentdeck/internal/logger"
	"github.com/agentdeck/agentdeck/internal/middleware"
)

const serviceName = "agentdeck-core"

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

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"agent_command", cfg.Engine.Command,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	shutdownOtel, err := otel.Init(ctx, cfg.Otel, serviceName)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(flushCtx); err != nil {
			slog.Warn("otel shutdown failed", "error", err)
		}
	}()

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := adnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// In-process cache (request idempotency)
	idemCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer idemCache.Close()

	// --- Engine ---
	launcher := claudecli.NewLauncher(cfg.Engine, log)
	archive := postgres.NewStore(pool)

	eng, err := engine.New(log, launcher, archive, cfg.Engine)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := eng.Hydrate(ctx); err != nil {
		return fmt.Errorf("restore archived state: %w", err)
	}

	// --- Event fan-out ---
	hub := ws.NewHub(cfg.Engine.EventBuffer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Relay(gctx, eng.Subscribe())
		return nil
	})
	g.Go(func() error {
		adnats.Mirror(gctx, queue, eng.Subscribe())
		return nil
	})

	// --- HTTP ---
	handlers := &adhttp.Handlers{
		Engine: eng,
		DB:     pool,
		WSInfo: hub.ConnectionCount,
	}

	r := chi.NewRouter()

	r.Use(adhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(adhttp.Logger)
	r.Use(otel.HTTPMiddleware(serviceName))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Idempotency(idemCache, cfg.Cache.TTL))

	adhttp.MountRoutes(r, handlers, hub.HandleWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Stop accepting requests, then cancel live orchestrations. Shutdown
		// closes the broadcast channel, which ends the relay goroutines.
		err := srv.Shutdown(shutdownCtx)
		eng.Shutdown(shutdownCtx)
		return err
	})

	return g.Wait()
}
