// Package evaluator is the boundary to the external LLM capability that
// judges compliance rules against contract text.
package evaluator

import (
	"context"
	"fmt"
	"net/http"

	"clausecheck/internal/store"

	"github.com/google/uuid"
)

// RuleSpec is the slice of a rule sent to the evaluator.
type RuleSpec struct {
	RuleID      uuid.UUID `json:"rule_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
}

// Verdict is the evaluator's judgement for a single rule. Exactly one
// verdict is produced per input rule: rules the response omitted or
// mangled come back with Outcome not_applicable, Confidence 0 and
// Malformed set, so the caller can record them instead of dropping them.
type Verdict struct {
	RuleID      uuid.UUID
	Outcome     store.Outcome
	Confidence  float64
	Explanation string
	Evidence    []string
	// Malformed marks a verdict synthesized from a bad or missing
	// sub-result. Malformed verdicts count as failed rules, but never
	// fail the batch: the call itself succeeded.
	Malformed bool
}

// Evaluator judges a batch of rules against contract text in one call.
//
// An error return means the call itself failed (network, timeout, bad
// status) and may be retried. A malformed response body is NOT an error:
// it is decomposed into per-rule Malformed verdicts, because retrying
// would re-pay for work the provider already performed.
type Evaluator interface {
	Evaluate(ctx context.Context, contractText string, rules []RuleSpec) ([]Verdict, error)

	// Name identifies the evaluator (model name) for the evaluated_by field.
	Name() string
}

// CallError is an outright evaluation-call failure.
type CallError struct {
	StatusCode int // 0 for transport-level failures
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("evaluation call failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("evaluation call failed: %v", e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Retryable reports whether the failure class is worth retrying.
// Transport errors, timeouts, rate limits and server errors are; other
// client errors are not.
func (e *CallError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}
