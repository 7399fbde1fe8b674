package handlers

import (
	"errors"
	"net/http"

	"clausecheck/internal/engine"
	"clausecheck/internal/store"
	"clausecheck/pkg/api"

	"github.com/google/uuid"
)

// ContractResults handles GET /contracts/{contract_id}/results.
// The summary is recomputed from the result store on every call so it
// always reflects the latest writes.
func (h *Handlers) ContractResults(w http.ResponseWriter, r *http.Request) {
	contractID, err := uuid.Parse(r.PathValue("contract_id"))
	if err != nil {
		h.httpError(w, "Invalid contract id", http.StatusBadRequest)
		return
	}

	results, err := h.store.ListResultsByContract(r.Context(), contractID)
	if err != nil {
		h.httpError(w, "Failed to load results", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.ContractResultsResponse{
		Results: toResultResponses(results),
		Summary: toSummaryResponse(engine.Summarize(results)),
	})
}

// RuleResults handles GET /rules/{rule_id}/results.
// With stale_only=true, only results whose captured rule version predates
// the rule's current updated date are returned. Staleness is surfaced here,
// never auto-corrected.
func (h *Handlers) RuleResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ruleID, err := uuid.Parse(r.PathValue("rule_id"))
	if err != nil {
		h.httpError(w, "Invalid rule id", http.StatusBadRequest)
		return
	}

	rule, err := h.rules.GetRuleByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Rule not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to load rule", http.StatusInternalServerError)
		return
	}

	results, err := h.store.ListResultsByRule(ctx, ruleID)
	if err != nil {
		h.httpError(w, "Failed to load results", http.StatusInternalServerError)
		return
	}

	staleOnly := r.URL.Query().Get("stale_only") == "true"
	if staleOnly {
		results = engine.FilterStale(results, rule.UpdatedDate)
	}

	out := make([]api.ResultResponse, len(results))
	for i := range results {
		out[i] = toResultResponse(&results[i])
		out[i].Stale = engine.IsStale(&results[i], rule.UpdatedDate)
	}

	h.respondJson(w, http.StatusOK, api.RuleResultsResponse{Results: out})
}
