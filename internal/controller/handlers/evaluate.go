package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"clausecheck/internal/engine"
	"clausecheck/internal/store"
	"clausecheck/pkg/api"

	"github.com/google/uuid"
)

// EvaluateContract handles POST /contracts/{contract_id}/evaluate.
// Creates an evaluate_contract job. With async=false and a rule set that
// fits in one batch, it blocks on completion and returns inline results;
// there is no separate synchronous code path.
func (h *Handlers) EvaluateContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contractID, err := uuid.Parse(r.PathValue("contract_id"))
	if err != nil {
		h.httpError(w, "Invalid contract id", http.StatusBadRequest)
		return
	}

	var req api.EvaluateContractRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.httpError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	if _, err := h.store.GetContractByID(ctx, contractID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Contract not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to load contract", http.StatusInternalServerError)
		return
	}

	ruleIDs, ok := h.parseIDs(w, req.RuleIDs, "rule_ids")
	if !ok {
		return
	}

	job := &store.EvaluationJob{
		ID:          uuid.New(),
		JobType:     store.JobTypeEvaluateContract,
		Status:      store.JobStatusPending,
		ContractIDs: []uuid.UUID{contractID},
		RuleIDs:     ruleIDs,
		TotalRules:  len(ruleIDs),
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.store.CreateJob(ctx, job); err != nil {
		h.httpError(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	async := req.Async == nil || *req.Async
	if !async && h.syncEligible(ctx, ruleIDs) {
		h.respondSync(w, r, job.ID, contractID)
		return
	}

	h.respondJson(w, http.StatusAccepted, api.EvaluateResponse{JobID: job.ID.String()})
}

// EvaluateRule handles POST /rules/{rule_id}/evaluate.
// Creates a batch_evaluate job covering the given contracts, or every
// ingested contract when none are specified.
func (h *Handlers) EvaluateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ruleID, err := uuid.Parse(r.PathValue("rule_id"))
	if err != nil {
		h.httpError(w, "Invalid rule id", http.StatusBadRequest)
		return
	}

	var req api.EvaluateRuleRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.httpError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	if _, err := h.rules.GetRuleByID(ctx, ruleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Rule not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to load rule", http.StatusInternalServerError)
		return
	}

	contractIDs, ok := h.parseIDs(w, req.ContractIDs, "contract_ids")
	if !ok {
		return
	}

	jobType := store.JobTypeEvaluateRule
	if len(contractIDs) != 1 {
		jobType = store.JobTypeBatchEvaluate
	}

	job := &store.EvaluationJob{
		ID:          uuid.New(),
		JobType:     jobType,
		Status:      store.JobStatusPending,
		ContractIDs: contractIDs,
		RuleIDs:     []uuid.UUID{ruleID},
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.store.CreateJob(ctx, job); err != nil {
		h.httpError(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusAccepted, api.EvaluateResponse{JobID: job.ID.String()})
}

// ReevaluateStale handles POST /rules/{rule_id}/reevaluate-stale.
// The stale target set is resolved by the worker at dispatch time, so
// results going stale between request and dispatch are still covered.
func (h *Handlers) ReevaluateStale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ruleID, err := uuid.Parse(r.PathValue("rule_id"))
	if err != nil {
		h.httpError(w, "Invalid rule id", http.StatusBadRequest)
		return
	}

	if _, err := h.rules.GetRuleByID(ctx, ruleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Rule not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to load rule", http.StatusInternalServerError)
		return
	}

	job := &store.EvaluationJob{
		ID:        uuid.New(),
		JobType:   store.JobTypeReevaluateStale,
		Status:    store.JobStatusPending,
		RuleIDs:   []uuid.UUID{ruleID},
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateJob(ctx, job); err != nil {
		h.httpError(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusAccepted, api.EvaluateResponse{JobID: job.ID.String()})
}

// syncEligible reports whether the rule set is small enough for sync mode.
func (h *Handlers) syncEligible(ctx context.Context, ruleIDs []uuid.UUID) bool {
	count := len(ruleIDs)
	if count == 0 {
		rules, err := h.rules.ListActiveRules(ctx, "")
		if err != nil {
			return false
		}
		count = len(rules)
	}
	return count > 0 && count <= h.config.SyncRuleThreshold
}

// respondSync blocks on job completion with a short timeout and returns
// inline results. On timeout it degrades to the async 202 response.
func (h *Handlers) respondSync(w http.ResponseWriter, r *http.Request, jobID, contractID uuid.UUID) {
	job, err := h.waitForJob(r.Context(), jobID)
	if err != nil || !job.Status.Terminal() {
		h.respondJson(w, http.StatusAccepted, api.EvaluateResponse{JobID: jobID.String()})
		return
	}

	if job.Status == store.JobStatusFailed {
		msg := "Evaluation failed"
		if job.ErrorMessage != nil {
			msg = *job.ErrorMessage
		}
		h.httpError(w, msg, http.StatusBadGateway)
		return
	}

	results, err := h.store.ListResultsByContract(r.Context(), contractID)
	if err != nil {
		h.httpError(w, "Failed to load results", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.EvaluateSyncResponse{
		JobID:   jobID.String(),
		Results: toResultResponses(results),
		Summary: toSummaryResponse(engine.Summarize(results)),
	})
}

// waitForJob polls until the job is terminal or the sync timeout elapses.
func (h *Handlers) waitForJob(ctx context.Context, jobID uuid.UUID) (*store.EvaluationJob, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.SyncWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	for {
		job, err := h.store.GetJobByID(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return job, nil
		case <-ticker.C:
		}
	}
}

// parseIDs parses an optional list of UUIDs from a request body.
func (h *Handlers) parseIDs(w http.ResponseWriter, raw []string, field string) ([]uuid.UUID, bool) {
	var ids []uuid.UUID
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			h.httpError(w, "Invalid "+field, http.StatusBadRequest)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
