package handlers

import (
	"errors"
	"net/http"

	"clausecheck/internal/store"

	"github.com/google/uuid"
)

// GetJob handles GET /jobs/{job_id}.
// Status and progress are queryable at any point in the lifecycle,
// including mid-failure.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("job_id"))
	if err != nil {
		h.httpError(w, "Invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.store.GetJobByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Job not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to load job", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, toJobResponse(job))
}

// CancelJob handles DELETE /jobs/{job_id}.
// Cancellation is cooperative: a dispatched batch finishes and keeps its
// results, then the worker stops. The job record stays until reaping.
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(r.PathValue("job_id"))
	if err != nil {
		h.httpError(w, "Invalid job id", http.StatusBadRequest)
		return
	}

	err = h.store.RequestCancel(r.Context(), jobID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.httpError(w, "Job not found", http.StatusNotFound)
	case errors.Is(err, store.ErrJobTerminal):
		h.httpError(w, "Job already finished", http.StatusConflict)
	case err != nil:
		h.httpError(w, "Failed to cancel job", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}
