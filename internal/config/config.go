// Package config handles environment variable loading for ports, database strings, etc.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// OTLP collector endpoint for traces
	OTELEndpoint string

	// Evaluation worker pool size; caps concurrent outbound LLM calls
	WorkerConcurrency int

	// Base interval between job claim attempts
	WorkerPollInterval time.Duration

	// Rules per evaluator call
	BatchSize int

	// Retention window for terminal jobs before the reaper deletes them
	JobRetention time.Duration

	// Requests per second allowed on evaluation endpoints; 0 = unlimited
	EvalRateLimit float64

	// LLM provider settings
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:           8080,
		OTELEndpoint:       getEnv("OTEL_ENDPOINT", "localhost:4317"),
		WorkerConcurrency:  4,
		WorkerPollInterval: 1 * time.Second,
		BatchSize:          10,
		JobRetention:       7 * 24 * time.Hour,
		EvalRateLimit:      0,
		LLMBaseURL:         os.Getenv("CLAUSECHECK_LLM_BASE_URL"),
		LLMAPIKey:          os.Getenv("CLAUSECHECK_LLM_API_KEY"),
		LLMModel:           getEnv("CLAUSECHECK_LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:         60 * time.Second,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := intEnv("PORT", &cfg.HTTPPort); err != nil {
		return nil, err
	}
	if err := intEnv("WORKER_CONCURRENCY", &cfg.WorkerConcurrency); err != nil {
		return nil, err
	}
	if err := durationEnv("WORKER_POLL_INTERVAL", &cfg.WorkerPollInterval); err != nil {
		return nil, err
	}
	if err := intEnv("EVAL_BATCH_SIZE", &cfg.BatchSize); err != nil {
		return nil, err
	}
	if err := durationEnv("JOB_RETENTION", &cfg.JobRetention); err != nil {
		return nil, err
	}
	if err := floatEnv("EVAL_RATE_LIMIT", &cfg.EvalRateLimit); err != nil {
		return nil, err
	}
	if err := durationEnv("CLAUSECHECK_LLM_TIMEOUT", &cfg.LLMTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, out *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*out = n
	return nil
}

func floatEnv(key string, out *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*out = f
	return nil
}

func durationEnv(key string, out *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*out = d
	return nil
}
