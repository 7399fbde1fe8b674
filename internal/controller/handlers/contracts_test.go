package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clausecheck/internal/store"
	"clausecheck/pkg/api"

	"github.com/google/uuid"
)

func TestCreateContract(t *testing.T) {
	validReq := api.CreateContractRequest{Title: "msa", Text: "Payment is due within 30 days."}
	validBody, _ := json.Marshal(validReq)

	tests := []struct {
		name           string
		body           []byte
		expectedStatus int
		expectedInBody string
	}{
		{name: "Success", body: validBody, expectedStatus: http.StatusCreated, expectedInBody: "contract_id"},
		{name: "Invalid JSON", body: []byte(`{nope}`), expectedStatus: http.StatusBadRequest, expectedInBody: "Invalid request body"},
		{name: "Missing Fields", body: []byte(`{"title": ""}`), expectedStatus: http.StatusBadRequest, expectedInBody: "Title and Text are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockStore()
			h := testHandlers(mock, newMockRuleStore())

			req := httptest.NewRequest(http.MethodPost, "/contracts", bytes.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.CreateContract(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
			if tt.expectedInBody != "" && !strings.Contains(rr.Body.String(), tt.expectedInBody) {
				t.Errorf("handler returned unexpected body: got %v want substring %v", rr.Body.String(), tt.expectedInBody)
			}
		})
	}
}

func TestCreateContract_WithoutEvaluateCreatesNoJob(t *testing.T) {
	mock := newMockStore()
	h := testHandlers(mock, newMockRuleStore())

	body, _ := json.Marshal(api.CreateContractRequest{Title: "msa", Text: "text"})
	req := httptest.NewRequest(http.MethodPost, "/contracts", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateContract(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if len(mock.createdJobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(mock.createdJobs))
	}
}

func TestCreateContract_EvaluateCreatesJob(t *testing.T) {
	ruleID := uuid.New()
	rules := newMockRuleStore()
	rules.rules[ruleID] = &store.Rule{ID: ruleID, Active: true}

	mock := newMockStore()
	mock.completeJobOnGet = true
	h := testHandlers(mock, rules)

	body, _ := json.Marshal(api.CreateContractRequest{Title: "msa", Text: "text", Evaluate: true})
	req := httptest.NewRequest(http.MethodPost, "/contracts", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateContract(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(mock.createdJobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(mock.createdJobs))
	}

	var resp api.CreateContractResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.JobID == "" {
		t.Error("expected a job id in the response")
	}
}

func TestGetContract(t *testing.T) {
	contractID := uuid.New()
	mock := newMockStore()
	mock.contracts[contractID] = &store.Contract{ID: contractID, Title: "msa", Text: "text"}
	h := testHandlers(mock, newMockRuleStore())

	tests := []struct {
		name           string
		idParam        string
		expectedStatus int
	}{
		{name: "Success", idParam: contractID.String(), expectedStatus: http.StatusOK},
		{name: "Invalid UUID", idParam: "nope", expectedStatus: http.StatusBadRequest},
		{name: "Not Found", idParam: uuid.New().String(), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/contracts/"+tt.idParam, nil)
			req.SetPathValue("contract_id", tt.idParam)
			rr := httptest.NewRecorder()
			h.GetContract(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	h := testHandlers(newMockStore(), newMockRuleStore())

	rr := httptest.NewRecorder()
	h.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestReadyz(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		h := testHandlers(newMockStore(), newMockRuleStore())

		rr := httptest.NewRecorder()
		h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rr.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("Evaluation Store Unavailable", func(t *testing.T) {
		mock := newMockStore()
		mock.pingErr = context.DeadlineExceeded
		h := testHandlers(mock, newMockRuleStore())

		rr := httptest.NewRecorder()
		h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "evaluation store") {
			t.Errorf("expected detail naming the evaluation store, got %q", rr.Body.String())
		}
	})
}
