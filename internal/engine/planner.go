// Package engine contains the pure computation parts of the evaluation
// pipeline: batch planning, staleness detection and summary aggregation.
// Nothing in this package blocks or performs I/O.
package engine

import "clausecheck/internal/store"

// DefaultBatchSize is the maximum number of rules sent to the evaluator in
// a single call.
const DefaultBatchSize = 10

// PlanBatches splits rules into ordered batches of at most size rules each.
// Every input rule appears in exactly one batch and concatenating the
// batches reproduces the input order, so progress reporting and error
// messages stay deterministic across retries.
func PlanBatches(rules []store.Rule, size int) [][]store.Rule {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(rules) == 0 {
		return nil
	}

	batches := make([][]store.Rule, 0, (len(rules)+size-1)/size)
	for start := 0; start < len(rules); start += size {
		end := start + size
		if end > len(rules) {
			end = len(rules)
		}
		batches = append(batches, rules[start:end])
	}

	return batches
}
