package middleware

import (
	"encoding/json"
	"net/http"

	"clausecheck/pkg/api"

	"golang.org/x/time/rate"
)

// RateLimit bounds the request rate on expensive endpoints. Evaluation
// requests fan out into LLM calls, so the limiter sits in front of job
// creation rather than the worker pool.
func RateLimit(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Limit of 0 means unlimited.
			if rps > 0 && !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(api.ErrorResponse{
					Error: "Too many evaluation requests",
					Code:  "429",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
