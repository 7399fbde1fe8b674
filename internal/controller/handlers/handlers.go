// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"clausecheck/internal/engine"
	"clausecheck/internal/store"
	"clausecheck/pkg/api"
)

// StoreFactory combines the repositories the controller needs.
type StoreFactory interface {
	Ping(ctx context.Context) error
	store.ContractStore
	store.ResultStore
	store.JobStore
}

// Config holds handler tunables.
type Config struct {
	// SyncWaitTimeout bounds how long the sync evaluation path blocks on job
	// completion before degrading to an async 202 response.
	SyncWaitTimeout time.Duration
	// SyncRuleThreshold is the largest rule count eligible for sync mode.
	SyncRuleThreshold int
}

// Handlers holds all HTTP handlers and their dependencies.
// Rule reads and mutations go through the caching rule store so every
// mutation invalidates cached rule sets.
type Handlers struct {
	store  StoreFactory
	rules  store.RuleStore
	config Config
}

// New creates a new Handlers instance.
func New(s StoreFactory, rules store.RuleStore, config Config) *Handlers {
	if config.SyncWaitTimeout <= 0 {
		config.SyncWaitTimeout = 30 * time.Second
	}
	if config.SyncRuleThreshold <= 0 {
		config.SyncRuleThreshold = engine.DefaultBatchSize
	}
	return &Handlers{store: s, rules: rules, config: config}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

func toRuleResponse(rule *store.Rule) api.RuleResponse {
	return api.RuleResponse{
		ID:          rule.ID.String(),
		Name:        rule.Name,
		Description: rule.Description,
		Severity:    string(rule.Severity),
		Category:    rule.Category,
		Active:      rule.Active,
		CreatedAt:   rule.CreatedAt,
		UpdatedDate: rule.UpdatedDate,
	}
}

func toResultResponse(result *store.EvaluationResult) api.ResultResponse {
	evidence := result.Evidence
	if evidence == nil {
		evidence = []string{}
	}
	return api.ResultResponse{
		ID:              result.ID.String(),
		ContractID:      result.ContractID.String(),
		RuleID:          result.RuleID.String(),
		RuleName:        result.RuleName,
		RuleDescription: result.RuleDescription,
		RuleSeverity:    string(result.RuleSeverity),
		RuleVersionDate: result.RuleVersionDate,
		Outcome:         string(result.Outcome),
		Confidence:      result.Confidence,
		Explanation:     result.Explanation,
		Evidence:        evidence,
		EvaluatedDate:   result.EvaluatedDate,
		EvaluatedBy:     result.EvaluatedBy,
	}
}

func toResultResponses(results []store.EvaluationResult) []api.ResultResponse {
	out := make([]api.ResultResponse, len(results))
	for i := range results {
		out[i] = toResultResponse(&results[i])
	}
	return out
}

func toJobResponse(job *store.EvaluationJob) api.JobResponse {
	resultIDs := make([]string, len(job.ResultIDs))
	for i, id := range job.ResultIDs {
		resultIDs[i] = id.String()
	}
	return api.JobResponse{
		ID:             job.ID.String(),
		JobType:        string(job.JobType),
		Status:         string(job.Status),
		Progress:       job.Progress(),
		TotalRules:     job.TotalRules,
		CompletedRules: job.CompletedRules,
		FailedRules:    job.FailedRules,
		StartedDate:    job.StartedDate,
		CompletedDate:  job.CompletedDate,
		ErrorMessage:   job.ErrorMessage,
		ResultIDs:      resultIDs,
	}
}

func toSummaryResponse(s engine.Summary) api.SummaryResponse {
	return api.SummaryResponse{
		Total:              s.Total,
		Pass:               s.Pass,
		Fail:               s.Fail,
		Partial:            s.Partial,
		NotApplicable:      s.NotApplicable,
		PassRate:           s.PassRate,
		FailuresBySeverity: s.FailuresBySeverity,
	}
}
