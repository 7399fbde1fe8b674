// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the controller.
package api

import "time"

// CreateRuleRequest is the request body for creating a compliance rule.
type CreateRuleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Category    string `json:"category,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// UpdateRuleRequest is the request body for updating a rule. All fields are
// required; the server bumps the rule version only when content changed.
type UpdateRuleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Active      bool   `json:"active"`
}

// RuleResponse represents a rule in API responses.
type RuleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Category    string    `json:"category"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedDate time.Time `json:"updated_date"`
}

// CreateContractRequest is the request body for ingesting a contract.
// When Evaluate is set and the active rule set fits in one batch, the
// response carries inline results from the evaluate-now path.
type CreateContractRequest struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	Evaluate bool   `json:"evaluate,omitempty"`
}

// CreateContractResponse is the response body after ingesting a contract.
type CreateContractResponse struct {
	ContractID string           `json:"contract_id"`
	JobID      string           `json:"job_id,omitempty"`
	Results    []ResultResponse `json:"results,omitempty"`
	Summary    *SummaryResponse `json:"summary,omitempty"`
}

// EvaluateContractRequest is the request body for evaluating a contract.
// An empty RuleIDs list means all active rules.
type EvaluateContractRequest struct {
	RuleIDs []string `json:"rule_ids,omitempty"`
	Async   *bool    `json:"async,omitempty"` // defaults to true
}

// EvaluateRuleRequest is the request body for evaluating a rule across
// contracts. An empty ContractIDs list means all contracts.
type EvaluateRuleRequest struct {
	ContractIDs []string `json:"contract_ids,omitempty"`
}

// EvaluateResponse is returned from async evaluation endpoints.
type EvaluateResponse struct {
	JobID string `json:"job_id"`
}

// EvaluateSyncResponse is returned when a small evaluation ran inline.
type EvaluateSyncResponse struct {
	JobID   string           `json:"job_id"`
	Results []ResultResponse `json:"results"`
	Summary SummaryResponse  `json:"summary"`
}

// JobResponse is the response body for job status queries.
type JobResponse struct {
	ID             string     `json:"id"`
	JobType        string     `json:"job_type"`
	Status         string     `json:"status"`
	Progress       float64    `json:"progress"`
	TotalRules     int        `json:"total_rules"`
	CompletedRules int        `json:"completed_rules"`
	FailedRules    int        `json:"failed_rules"`
	StartedDate    *time.Time `json:"started_date,omitempty"`
	CompletedDate  *time.Time `json:"completed_date,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	ResultIDs      []string   `json:"result_ids"`
}

// ResultResponse represents an evaluation result in API responses.
type ResultResponse struct {
	ID              string    `json:"id"`
	ContractID      string    `json:"contract_id"`
	RuleID          string    `json:"rule_id"`
	RuleName        string    `json:"rule_name"`
	RuleDescription string    `json:"rule_description"`
	RuleSeverity    string    `json:"rule_severity"`
	RuleVersionDate time.Time `json:"rule_version_date"`
	Outcome         string    `json:"outcome"`
	Confidence      float64   `json:"confidence"`
	Explanation     string    `json:"explanation"`
	Evidence        []string  `json:"evidence"`
	EvaluatedDate   time.Time `json:"evaluated_date"`
	EvaluatedBy     string    `json:"evaluated_by"`
	Stale           bool      `json:"stale,omitempty"`
}

// SummaryResponse carries per-outcome statistics for a result set.
type SummaryResponse struct {
	Total              int            `json:"total"`
	Pass               int            `json:"pass"`
	Fail               int            `json:"fail"`
	Partial            int            `json:"partial"`
	NotApplicable      int            `json:"not_applicable"`
	PassRate           float64        `json:"pass_rate"`
	FailuresBySeverity map[string]int `json:"failures_by_severity,omitempty"`
}

// ContractResultsResponse is the response for a contract's result listing.
type ContractResultsResponse struct {
	Results []ResultResponse `json:"results"`
	Summary SummaryResponse  `json:"summary"`
}

// RuleResultsResponse is the response for a rule's result listing.
type RuleResultsResponse struct {
	Results []ResultResponse `json:"results"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
