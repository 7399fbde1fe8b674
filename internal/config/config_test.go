package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clausecheck")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Errorf("expected default concurrency 4, got %d", cfg.WorkerConcurrency)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("expected default batch size 10, got %d", cfg.BatchSize)
	}
	if cfg.JobRetention != 7*24*time.Hour {
		t.Errorf("expected default retention 168h, got %v", cfg.JobRetention)
	}
	if cfg.LLMModel != "gpt-4o-mini" {
		t.Errorf("expected default model, got %q", cfg.LLMModel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clausecheck")
	t.Setenv("PORT", "9090")
	t.Setenv("WORKER_CONCURRENCY", "8")
	t.Setenv("WORKER_POLL_INTERVAL", "500ms")
	t.Setenv("EVAL_BATCH_SIZE", "5")
	t.Setenv("JOB_RETENTION", "24h")
	t.Setenv("EVAL_RATE_LIMIT", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.WorkerConcurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", cfg.WorkerConcurrency)
	}
	if cfg.WorkerPollInterval != 500*time.Millisecond {
		t.Errorf("expected poll interval 500ms, got %v", cfg.WorkerPollInterval)
	}
	if cfg.BatchSize != 5 {
		t.Errorf("expected batch size 5, got %d", cfg.BatchSize)
	}
	if cfg.JobRetention != 24*time.Hour {
		t.Errorf("expected retention 24h, got %v", cfg.JobRetention)
	}
	if cfg.EvalRateLimit != 2.5 {
		t.Errorf("expected rate limit 2.5, got %v", cfg.EvalRateLimit)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clausecheck")
	t.Setenv("PORT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid PORT")
	}
}
