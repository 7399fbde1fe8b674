package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"clausecheck/internal/engine"
	"clausecheck/internal/store"
	"clausecheck/pkg/api"

	"github.com/google/uuid"
)

// CreateContract handles POST /contracts.
// This is the ingestion hook: with evaluate=true a job covering all active
// rules is created immediately, and when the rule set fits in one batch the
// handler blocks briefly and returns inline results.
func (h *Handlers) CreateContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title == "" || req.Text == "" {
		h.httpError(w, "Title and Text are required", http.StatusBadRequest)
		return
	}

	contract := &store.Contract{
		ID:         uuid.New(),
		Title:      req.Title,
		Text:       req.Text,
		IngestedAt: time.Now().UTC(),
	}

	if err := h.store.CreateContract(ctx, contract); err != nil {
		h.httpError(w, "Failed to create contract", http.StatusInternalServerError)
		return
	}

	resp := api.CreateContractResponse{ContractID: contract.ID.String()}

	if !req.Evaluate {
		h.respondJson(w, http.StatusCreated, resp)
		return
	}

	job := &store.EvaluationJob{
		ID:          uuid.New(),
		JobType:     store.JobTypeEvaluateContract,
		Status:      store.JobStatusPending,
		ContractIDs: []uuid.UUID{contract.ID},
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.store.CreateJob(ctx, job); err != nil {
		h.httpError(w, "Failed to create evaluation job", http.StatusInternalServerError)
		return
	}
	resp.JobID = job.ID.String()

	if h.syncEligible(ctx, nil) {
		finished, err := h.waitForJob(ctx, job.ID)
		if err == nil && finished.Status == store.JobStatusCompleted {
			results, err := h.store.ListResultsByContract(ctx, contract.ID)
			if err == nil {
				summary := toSummaryResponse(engine.Summarize(results))
				resp.Results = toResultResponses(results)
				resp.Summary = &summary
			}
		}
	}

	h.respondJson(w, http.StatusCreated, resp)
}

// GetContract handles GET /contracts/{contract_id}.
func (h *Handlers) GetContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := uuid.Parse(r.PathValue("contract_id"))
	if err != nil {
		h.httpError(w, "Invalid contract id", http.StatusBadRequest)
		return
	}

	contract, err := h.store.GetContractByID(r.Context(), contractID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Contract not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to load contract", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, map[string]interface{}{
		"id":          contract.ID.String(),
		"title":       contract.Title,
		"text":        contract.Text,
		"ingested_at": contract.IngestedAt,
	})
}
