// Package main is the entry point for the clausecheck controller.
// It serves the REST API and runs the embedded evaluation runner and the
// job retention reaper.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clausecheck/internal/config"
	"clausecheck/internal/controller"
	"clausecheck/internal/controller/handlers"
	"clausecheck/internal/evaluator"
	"clausecheck/internal/logger"
	"clausecheck/internal/observability"
	"clausecheck/internal/reaper"
	"clausecheck/internal/store"
	"clausecheck/internal/store/postgres"
	"clausecheck/internal/worker"

	"golang.org/x/time/rate"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New("clausecheck-controller")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pg.Close()

	if *migrateFlag {
		slogger.Info("running database migrations")
		if err := postgres.Migrate(pg.DB()); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		slogger.Info("migrations completed")
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "clausecheck-controller", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slogger.Error("tracer shutdown failed", "error", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slogger.Error("metrics shutdown failed", "error", err)
		}
	}()

	if err := observability.RegisterActiveJobsGauge("clausecheck-controller", pg.CountActiveJobs); err != nil {
		slogger.Error("failed to register active jobs gauge", "error", err)
	}

	// Rule reads go through an explicit cache; every mutation invalidates it.
	rules := store.NewCachedRuleStore(pg, 30*time.Second)

	eval := evaluator.NewOpenAI(evaluator.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}, slogger)

	// Embedded evaluation runner
	runner := worker.New(pg, eval, worker.Config{
		Concurrency:  cfg.WorkerConcurrency,
		PollInterval: cfg.WorkerPollInterval,
		BatchSize:    cfg.BatchSize,
	}, slogger)
	go runner.Run(ctx)

	// Job retention reaper
	jobReaper := reaper.New(pg, cfg.JobRetention, slogger)
	if err := jobReaper.Start(ctx); err != nil {
		log.Fatalf("Failed to start reaper: %v", err)
	}
	defer jobReaper.Stop()

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	h := handlers.New(pg, rules, handlers.Config{})
	srv := controller.New(addr, h, controller.Options{
		Logger:         slogger,
		MetricsHandler: metricsHandler,
		EvalRateLimit:  rate.Limit(cfg.EvalRateLimit),
		EvalRateBurst:  10,
	})

	go func() {
		slogger.Info("controller starting", "addr", addr)
		if err := srv.Run(ctx); err != nil && err != context.Canceled {
			slogger.Error("server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	slogger.Info("shutting down controller")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight jobs finish their current batch.
	select {
	case <-runner.Done():
	case <-time.After(30 * time.Second):
		slogger.Warn("runner did not drain in time")
	}

	slogger.Info("server exited properly")
}
