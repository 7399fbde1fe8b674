package engine

import (
	"time"

	"clausecheck/internal/store"
)

// IsStale reports whether a result was computed against an older version of
// its rule. Staleness is only surfaced, never auto-corrected; re-evaluation
// is always a separate, explicit job.
func IsStale(result *store.EvaluationResult, currentRuleUpdatedDate time.Time) bool {
	return result.RuleVersionDate.Before(currentRuleUpdatedDate)
}

// FilterStale returns the subset of results whose captured rule version
// predates the rule's current updated date.
func FilterStale(results []store.EvaluationResult, currentRuleUpdatedDate time.Time) []store.EvaluationResult {
	var stale []store.EvaluationResult
	for i := range results {
		if IsStale(&results[i], currentRuleUpdatedDate) {
			stale = append(stale, results[i])
		}
	}
	return stale
}
