package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Simplici0/pouchquote/internal/catalog"
	"github.com/Simplici0/pouchquote/internal/config"
	"github.com/Simplici0/pouchquote/internal/db"
	"github.com/Simplici0/pouchquote/internal/logger"
	"github.com/Simplici0/pouchquote/internal/metrics"
	"github.com/Simplici0/pouchquote/internal/migrations"
	"github.com/Simplici0/pouchquote/internal/pricing"
	"github.com/Simplici0/pouchquote/internal/refdata"
	"github.com/Simplici0/pouchquote/internal/seed"
)

const serviceName = "pouchquote"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		fatal(ctx, logg, "failed to open database", err)
	}
	defer database.Close()

	if cfg.ShouldMigrate() {
		if err := migrations.Up(ctx, database); err != nil {
			fatal(ctx, logg, "failed to run database migrations", err)
		}
	}
	version, err := migrations.Version(ctx, database)
	if err != nil {
		fatal(ctx, logg, "failed to read schema version", err)
	}
	logg.Info(ctx, "db.schema", map[string]any{"version": version})

	stats, err := seed.Run(ctx, database, seed.DefaultConfig())
	if err != nil {
		fatal(ctx, logg, "failed to seed reference data", err)
	}
	logg.Info(ctx, "seed.complete", map[string]any{"inserts": stats.Inserts})

	cat, rates, err := refdata.Load(ctx, database)
	if err != nil {
		fatal(ctx, logg, "failed to load reference data", err)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		fatal(ctx, logg, "invalid engine options", err)
	}
	buildEngine := func(cat catalog.Catalog, rates pricing.RateCard) (*pricing.Engine, error) {
		return pricing.NewEngine(cfg.ApplyPlateDefaults(rates), cat, opts)
	}
	engine, err := buildEngine(cat, rates)
	if err != nil {
		fatal(ctx, logg, "failed to build pricing engine", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := &server{
		db:            database,
		logger:        logg,
		metrics:       metrics.NewQuoteMetrics(reg),
		defaultFXRate: cfg.DefaultFXRate,
		buildEngine:   buildEngine,
		adminToken:    cfg.AdminToken,
	}
	srv.engine.Store(engine)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server.shutdown", err)
		}
	}()

	logg.Info(ctx, "server.listening", map[string]any{
		"addr":            httpServer.Addr,
		"env":             cfg.Env,
		"materials":       cat.Len(),
		"print_mode":      string(opts.PrintMode),
		"fixed_cost_mode": string(opts.FixedCostMode),
		"admin_api":       cfg.AdminToken != "",
	})
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(ctx, logg, "server stopped", err)
	}
}

func fatal(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
