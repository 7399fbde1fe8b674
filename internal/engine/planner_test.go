package engine

import (
	"testing"

	"clausecheck/internal/store"

	"github.com/google/uuid"
)

func makeRules(n int) []store.Rule {
	rules := make([]store.Rule, n)
	for i := range rules {
		rules[i] = store.Rule{ID: uuid.New()}
	}
	return rules
}

func TestPlanBatches(t *testing.T) {
	tests := []struct {
		name      string
		ruleCount int
		batchSize int
		wantSizes []int
	}{
		{name: "Empty", ruleCount: 0, batchSize: 10, wantSizes: nil},
		{name: "Single Partial Batch", ruleCount: 5, batchSize: 10, wantSizes: []int{5}},
		{name: "Exact Fit", ruleCount: 20, batchSize: 10, wantSizes: []int{10, 10}},
		{name: "Remainder", ruleCount: 25, batchSize: 10, wantSizes: []int{10, 10, 5}},
		{name: "Batch Of One", ruleCount: 3, batchSize: 1, wantSizes: []int{1, 1, 1}},
		{name: "Zero Size Falls Back To Default", ruleCount: 12, batchSize: 0, wantSizes: []int{10, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := makeRules(tt.ruleCount)
			batches := PlanBatches(rules, tt.batchSize)

			if len(batches) != len(tt.wantSizes) {
				t.Fatalf("expected %d batches, got %d", len(tt.wantSizes), len(batches))
			}
			for i, batch := range batches {
				if len(batch) != tt.wantSizes[i] {
					t.Errorf("batch %d: expected size %d, got %d", i, tt.wantSizes[i], len(batch))
				}
			}

			// Every rule appears exactly once, in input order.
			var flat []store.Rule
			for _, batch := range batches {
				flat = append(flat, batch...)
			}
			if len(flat) != len(rules) {
				t.Fatalf("expected %d rules across batches, got %d", len(rules), len(flat))
			}
			for i := range flat {
				if flat[i].ID != rules[i].ID {
					t.Errorf("rule %d out of order: got %s want %s", i, flat[i].ID, rules[i].ID)
				}
			}
		})
	}
}
