// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"clausecheck/internal/controller/handlers"
	"clausecheck/internal/controller/middleware"

	"golang.org/x/time/rate"
)

// Options configures the controller server.
type Options struct {
	Logger         *slog.Logger
	MetricsHandler http.Handler
	EvalRateLimit  rate.Limit // limit on evaluation-triggering endpoints; 0 = unlimited
	EvalRateBurst  int
}

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server.
func New(addr string, h *handlers.Handlers, opts Options) *Server {
	evalLimit := middleware.RateLimit(opts.EvalRateLimit, opts.EvalRateBurst)

	mux := http.NewServeMux()

	// Rule management
	mux.HandleFunc("POST /rules", h.CreateRule)
	mux.HandleFunc("GET /rules", h.ListRules)
	mux.HandleFunc("GET /rules/{id}", h.GetRule)
	mux.HandleFunc("PUT /rules/{id}", h.UpdateRule)
	mux.HandleFunc("DELETE /rules/{id}", h.DeleteRule)

	// Contracts and ingestion
	mux.Handle("POST /contracts", evalLimit(http.HandlerFunc(h.CreateContract)))
	mux.HandleFunc("GET /contracts/{contract_id}", h.GetContract)

	// Evaluation
	mux.Handle("POST /contracts/{contract_id}/evaluate", evalLimit(http.HandlerFunc(h.EvaluateContract)))
	mux.Handle("POST /rules/{rule_id}/evaluate", evalLimit(http.HandlerFunc(h.EvaluateRule)))
	mux.Handle("POST /rules/{rule_id}/reevaluate-stale", evalLimit(http.HandlerFunc(h.ReevaluateStale)))

	// Jobs
	mux.HandleFunc("GET /jobs/{job_id}", h.GetJob)
	mux.HandleFunc("DELETE /jobs/{job_id}", h.CancelJob)

	// Results feed for dashboards
	mux.HandleFunc("GET /contracts/{contract_id}/results", h.ContractResults)
	mux.HandleFunc("GET /rules/{rule_id}/results", h.RuleResults)

	// Probes and metrics
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	var handler http.Handler = mux
	if opts.Logger != nil {
		handler = middleware.RequestLogger(opts.Logger)(handler)
	}
	handler = middleware.RequestID(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: handler,
			// Sync evaluation blocks on job completion, so the write timeout
			// must exceed the sync wait timeout.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 45 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
