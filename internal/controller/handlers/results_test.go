package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clausecheck/internal/store"
	"clausecheck/pkg/api"

	"github.com/google/uuid"
)

func TestContractResults(t *testing.T) {
	contractID := uuid.New()
	mock := newMockStore()
	mock.results[contractID] = []store.EvaluationResult{
		{ID: uuid.New(), ContractID: contractID, Outcome: store.OutcomePass},
		{ID: uuid.New(), ContractID: contractID, Outcome: store.OutcomeFail, RuleSeverity: store.SeverityHigh},
		{ID: uuid.New(), ContractID: contractID, Outcome: store.OutcomeFail, RuleSeverity: store.SeverityHigh},
		{ID: uuid.New(), ContractID: contractID, Outcome: store.OutcomeNotApplicable},
	}

	h := testHandlers(mock, newMockRuleStore())

	req := httptest.NewRequest(http.MethodGet, "/contracts/"+contractID.String()+"/results", nil)
	req.SetPathValue("contract_id", contractID.String())
	rr := httptest.NewRecorder()
	h.ContractResults(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp api.ContractResultsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Results) != 4 {
		t.Errorf("expected 4 results, got %d", len(resp.Results))
	}
	if resp.Summary.Total != 4 || resp.Summary.Pass != 1 || resp.Summary.Fail != 2 {
		t.Errorf("unexpected summary: %+v", resp.Summary)
	}
	if resp.Summary.PassRate != 0.25 {
		t.Errorf("expected pass rate 0.25, got %v", resp.Summary.PassRate)
	}
	if resp.Summary.FailuresBySeverity["high"] != 2 {
		t.Errorf("unexpected failures by severity: %v", resp.Summary.FailuresBySeverity)
	}
}

func TestContractResults_Empty(t *testing.T) {
	contractID := uuid.New()
	h := testHandlers(newMockStore(), newMockRuleStore())

	req := httptest.NewRequest(http.MethodGet, "/contracts/"+contractID.String()+"/results", nil)
	req.SetPathValue("contract_id", contractID.String())
	rr := httptest.NewRecorder()
	h.ContractResults(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp api.ContractResultsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Summary.Total != 0 || resp.Summary.PassRate != 0 {
		t.Errorf("expected empty summary with pass rate 0, got %+v", resp.Summary)
	}
}

func TestRuleResults_StaleAnnotation(t *testing.T) {
	ruleID := uuid.New()
	now := time.Now().UTC()

	rules := newMockRuleStore()
	rules.rules[ruleID] = &store.Rule{ID: ruleID, Active: true, UpdatedDate: now}

	mock := newMockStore()
	mock.byRule[ruleID] = []store.EvaluationResult{
		{ID: uuid.New(), RuleID: ruleID, RuleVersionDate: now.Add(-time.Hour)}, // stale
		{ID: uuid.New(), RuleID: ruleID, RuleVersionDate: now},                 // fresh
	}

	h := testHandlers(mock, rules)

	req := httptest.NewRequest(http.MethodGet, "/rules/"+ruleID.String()+"/results", nil)
	req.SetPathValue("rule_id", ruleID.String())
	rr := httptest.NewRecorder()
	h.RuleResults(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp api.RuleResultsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if !resp.Results[0].Stale || resp.Results[1].Stale {
		t.Errorf("unexpected stale annotations: %v, %v", resp.Results[0].Stale, resp.Results[1].Stale)
	}
}

func TestRuleResults_StaleOnlyFilter(t *testing.T) {
	ruleID := uuid.New()
	now := time.Now().UTC()

	rules := newMockRuleStore()
	rules.rules[ruleID] = &store.Rule{ID: ruleID, Active: true, UpdatedDate: now}

	mock := newMockStore()
	mock.byRule[ruleID] = []store.EvaluationResult{
		{ID: uuid.New(), RuleID: ruleID, RuleVersionDate: now.Add(-time.Hour)},
		{ID: uuid.New(), RuleID: ruleID, RuleVersionDate: now},
	}

	h := testHandlers(mock, rules)

	req := httptest.NewRequest(http.MethodGet, "/rules/"+ruleID.String()+"/results?stale_only=true", nil)
	req.SetPathValue("rule_id", ruleID.String())
	rr := httptest.NewRecorder()
	h.RuleResults(rr, req)

	var resp api.RuleResultsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected only the stale result, got %d", len(resp.Results))
	}
	if !resp.Results[0].Stale {
		t.Error("expected the filtered result to be marked stale")
	}
}

func TestRuleResults_RuleNotFound(t *testing.T) {
	h := testHandlers(newMockStore(), newMockRuleStore())

	missing := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/rules/"+missing+"/results", nil)
	req.SetPathValue("rule_id", missing)
	rr := httptest.NewRecorder()
	h.RuleResults(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}
