package handlers

import "net/http"

// Healthz is a liveness probe.
// It returns 200 OK if the server is running.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJson(w, http.StatusOK, map[string]string{"status": "healthy", "service": "clausecheck"})
}

// Readyz is a readiness probe. Rules, contracts, results, and the job queue
// all live in the evaluation store, so readiness reduces to that one
// dependency; the LLM backend is deliberately excluded since jobs queue fine
// while it is down.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.respondJson(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"detail": "evaluation store unreachable",
		})
		return
	}
	h.respondJson(w, http.StatusOK, map[string]string{"status": "ready"})
}
