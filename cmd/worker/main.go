// Package main is the entry point for a standalone clausecheck worker.
// It claims evaluation jobs from the shared database and runs them without
// serving the REST API, so evaluation capacity can scale independently.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"clausecheck/internal/config"
	"clausecheck/internal/evaluator"
	"clausecheck/internal/logger"
	"clausecheck/internal/observability"
	"clausecheck/internal/store/postgres"
	"clausecheck/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New("clausecheck-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pg.Close()

	shutdownTracer, err := observability.InitTracer(ctx, "clausecheck-worker", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slogger.Error("tracer shutdown failed", "error", err)
		}
	}()

	eval := evaluator.NewOpenAI(evaluator.Config{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}, slogger)

	runner := worker.New(pg, eval, worker.Config{
		Concurrency:  cfg.WorkerConcurrency,
		PollInterval: cfg.WorkerPollInterval,
		BatchSize:    cfg.BatchSize,
	}, slogger)

	go runner.Run(ctx)

	<-ctx.Done()
	stop()

	slogger.Info("shutting down worker")
	select {
	case <-runner.Done():
	case <-time.After(30 * time.Second):
		slogger.Warn("runner did not drain in time")
	}
	slogger.Info("worker exited properly")
}
