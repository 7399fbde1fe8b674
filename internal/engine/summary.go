package engine

import "clausecheck/internal/store"

// Summary holds per-outcome counts over a set of evaluation results.
// It is always recomputed from the result store, never cached, so dashboard
// reads reflect the latest writes.
type Summary struct {
	Total              int            `json:"total"`
	Pass               int            `json:"pass"`
	Fail               int            `json:"fail"`
	Partial            int            `json:"partial"`
	NotApplicable      int            `json:"not_applicable"`
	PassRate           float64        `json:"pass_rate"`
	FailuresBySeverity map[string]int `json:"failures_by_severity,omitempty"`
}

// Summarize computes outcome counts and the pass rate for a result set.
// PassRate is 0 for an empty set, never NaN.
func Summarize(results []store.EvaluationResult) Summary {
	s := Summary{}

	for i := range results {
		s.Total++
		switch results[i].Outcome {
		case store.OutcomePass:
			s.Pass++
		case store.OutcomeFail:
			s.Fail++
			if s.FailuresBySeverity == nil {
				s.FailuresBySeverity = make(map[string]int)
			}
			s.FailuresBySeverity[string(results[i].RuleSeverity)]++
		case store.OutcomePartial:
			s.Partial++
		case store.OutcomeNotApplicable:
			s.NotApplicable++
		}
	}

	if s.Total > 0 {
		s.PassRate = float64(s.Pass) / float64(s.Total)
	}

	return s
}
