package evaluator

import (
	"encoding/json"
	"fmt"

	"clausecheck/internal/store"

	"github.com/google/uuid"
)

// verdictEnvelope is the fixed response contract: one object per rule_id.
type verdictEnvelope struct {
	Verdicts []rawVerdict `json:"verdicts"`
}

type rawVerdict struct {
	RuleID      string   `json:"rule_id"`
	Outcome     string   `json:"outcome"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"explanation"`
	Evidence    []string `json:"evidence"`
}

// decodeVerdicts validates the model's JSON content against the response
// contract and returns exactly one verdict per input rule, in input order.
// Any deviation - an omitted rule, an unknown outcome, an out-of-range
// confidence, a duplicate or unrequested rule_id, or an undecodable body -
// becomes a Malformed verdict for the affected rules rather than a silent
// default. Returns the verdicts and the number of malformed ones.
func decodeVerdicts(content string, rules []RuleSpec) ([]Verdict, int) {
	parsed := make(map[uuid.UUID]rawVerdict, len(rules))
	problems := make(map[uuid.UUID]string)

	var envelope verdictEnvelope
	if err := json.Unmarshal([]byte(content), &envelope); err == nil {
		requested := make(map[uuid.UUID]bool, len(rules))
		for _, r := range rules {
			requested[r.RuleID] = true
		}

		// Tracked separately from parsed so a repeat stays malformed no
		// matter how many times the rule_id recurs.
		seen := make(map[uuid.UUID]bool, len(rules))

		for _, raw := range envelope.Verdicts {
			id, err := uuid.Parse(raw.RuleID)
			if err != nil || !requested[id] {
				// Unrequested or unparseable rule_id; nothing to attach it to.
				continue
			}
			if seen[id] {
				problems[id] = "duplicate verdict for this rule"
				delete(parsed, id)
				continue
			}
			seen[id] = true
			if problem := validateVerdict(raw); problem != "" {
				problems[id] = problem
				continue
			}
			parsed[id] = raw
		}
	}
	// An undecodable body leaves parsed empty: every rule falls through to
	// the missing case below.

	verdicts := make([]Verdict, 0, len(rules))
	malformed := 0

	for _, rule := range rules {
		if raw, ok := parsed[rule.RuleID]; ok {
			evidence := raw.Evidence
			if evidence == nil {
				evidence = []string{}
			}
			verdicts = append(verdicts, Verdict{
				RuleID:      rule.RuleID,
				Outcome:     store.Outcome(raw.Outcome),
				Confidence:  raw.Confidence,
				Explanation: raw.Explanation,
				Evidence:    evidence,
			})
			continue
		}

		explanation := "evaluation response missing for this rule"
		if problem, ok := problems[rule.RuleID]; ok {
			explanation = fmt.Sprintf("evaluation response invalid for this rule: %s", problem)
		}

		verdicts = append(verdicts, Verdict{
			RuleID:      rule.RuleID,
			Outcome:     store.OutcomeNotApplicable,
			Confidence:  0,
			Explanation: explanation,
			Evidence:    []string{},
			Malformed:   true,
		})
		malformed++
	}

	return verdicts, malformed
}

// validateVerdict checks a sub-result against the response contract.
// Returns an empty string when valid, otherwise the reason it is malformed.
func validateVerdict(raw rawVerdict) string {
	if !store.ValidOutcome(raw.Outcome) {
		return fmt.Sprintf("unknown outcome %q", raw.Outcome)
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return fmt.Sprintf("confidence %v out of range", raw.Confidence)
	}
	return ""
}
