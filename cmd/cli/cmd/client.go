package cmd

import (
	"bytes"
	"clausecheck/pkg/api"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client handles API calls to the clausecheck controller.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new client with the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			// Must exceed the server's sync evaluation wait.
			Timeout: 60 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *Client) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// CreateRule sends POST /rules to create a new compliance rule.
func (c *Client) CreateRule(req api.CreateRuleRequest) (*api.RuleResponse, error) {
	var result api.RuleResponse
	if err := c.do(http.MethodPost, "/rules", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListRules sends GET /rules to list active rules, optionally by category.
func (c *Client) ListRules(category string) ([]api.RuleResponse, error) {
	path := "/rules"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var result []api.RuleResponse
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// EvaluateContract sends POST /contracts/{id}/evaluate to start an evaluation.
// The server returns inline results when the job is small enough to run
// synchronously, otherwise a job reference for polling.
func (c *Client) EvaluateContract(contractID string, req api.EvaluateContractRequest) (json.RawMessage, int, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/contracts/%s/evaluate", c.BaseURL, contractID), bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return respBody, resp.StatusCode, nil
}

// GetJob sends GET /jobs/{id} to retrieve job status.
func (c *Client) GetJob(jobID string) (*api.JobResponse, error) {
	var result api.JobResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/jobs/%s", jobID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelJob sends DELETE /jobs/{id} to request cancellation.
func (c *Client) CancelJob(jobID string) (*api.JobResponse, error) {
	var result api.JobResponse
	if err := c.do(http.MethodDelete, fmt.Sprintf("/jobs/%s", jobID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ContractResults sends GET /contracts/{id}/results.
func (c *Client) ContractResults(contractID string) (*api.ContractResultsResponse, error) {
	var result api.ContractResultsResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/contracts/%s/results", contractID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RuleResults sends GET /rules/{id}/results, optionally restricted to stale
// results only.
func (c *Client) RuleResults(ruleID string, staleOnly bool) (*api.RuleResultsResponse, error) {
	path := fmt.Sprintf("/rules/%s/results", ruleID)
	if staleOnly {
		path += "?stale_only=true"
	}
	var result api.RuleResultsResponse
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReevaluateStale sends POST /rules/{id}/reevaluate-stale to queue a
// re-evaluation of all contracts with out-of-date results for the rule.
func (c *Client) ReevaluateStale(ruleID string) (*api.EvaluateResponse, error) {
	var result api.EvaluateResponse
	if err := c.do(http.MethodPost, fmt.Sprintf("/rules/%s/reevaluate-stale", ruleID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
