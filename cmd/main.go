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

	"github.com/prometheus/client_golang/prometheus"

	httpadapter "sentinelnet/internal/adapter/http"
	"sentinelnet/internal/adapter/postgres"
	"sentinelnet/internal/adapter/usecase"
	"sentinelnet/internal/config"
	"sentinelnet/internal/db"
	"sentinelnet/internal/metrics"
)

// main is the entry point of the sentinelnet service. It loads
// configuration, optionally runs database migrations and seeds demo data,
// wires the sharing core and starts the HTTP server. On receiving a
// termination signal it gracefully shuts down the server.
func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		// Initialise structured logger based on configuration.
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied successfully")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Psql.SeedDemoData {
		if err = db.Seed(ctx, pool); err != nil {
			logger.Error("seed error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("demo data seeded")
	}

	incidents := postgres.NewIncidentRepository(pool)
	campaigns := postgres.NewCampaignRepository(pool)
	orgs := postgres.NewOrganizationRepository(pool)
	budgets := postgres.NewBudgetRepository(pool)
	audit := postgres.NewAuditRepository(pool)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	projector := usecase.NewProjector(cfg.Sharing.KAnonymity)
	ledger := usecase.NewBudgetLedger(budgets, cfg.Sharing.QueryBudget, cfg.Sharing.BudgetWindow)
	aggregator := usecase.NewAggregator(campaigns, incidents, orgs, cfg.Sharing.SampleIOCLimit)
	engine := usecase.NewClusterEngine(campaigns, incidents, aggregator, m,
		cfg.Sharing.Tolerance(), cfg.Sharing.StrictIOCMatch, cfg.Sharing.SampleIOCLimit)
	svc := usecase.NewSharingService(incidents, campaigns, orgs, audit, ledger, engine, projector, m)

	handler := httpadapter.NewHandler(svc, orgs, logger, registry)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
