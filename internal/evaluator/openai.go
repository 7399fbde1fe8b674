package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const systemPrompt = `You are a contract compliance analyst. You will receive the full text of a contract and a list of compliance rules. Evaluate every rule against the contract text.

Respond with a single JSON object of the form:
{"verdicts": [{"rule_id": "<id>", "outcome": "pass|fail|partial|not_applicable", "confidence": <0..1>, "explanation": "<why>", "evidence": ["<verbatim contract excerpt>", ...]}]}

Return exactly one verdict per rule, matched by rule_id. Evidence must be verbatim excerpts from the contract text; use an empty array when no relevant clause exists.`

// Config holds settings for the OpenAI-compatible evaluator client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration // per-call timeout; a timeout is a retryable call failure
	Temperature float64
	MaxTokens   int
}

// OpenAIEvaluator calls an OpenAI-compatible chat/completions endpoint and
// decomposes the multi-rule JSON response into individual verdicts.
type OpenAIEvaluator struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewOpenAI creates an evaluator client with pooled connections.
func NewOpenAI(config Config, logger *slog.Logger) *OpenAIEvaluator {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}

	return &OpenAIEvaluator{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		logger: logger,
	}
}

// Name returns the configured model name.
func (e *OpenAIEvaluator) Name() string {
	return e.config.Model
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Evaluate sends one batched call covering all rules and returns exactly one
// verdict per input rule.
func (e *OpenAIEvaluator) Evaluate(ctx context.Context, contractText string, rules []RuleSpec) ([]Verdict, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(chatRequest{
		Model: e.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(contractText, rules)},
		},
		Temperature:    e.config.Temperature,
		MaxTokens:      e.config.MaxTokens,
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal evaluation request: %w", err)
	}

	endpoint := e.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create evaluation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &CallError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CallError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &CallError{
			StatusCode: resp.StatusCode,
			Err:        errors.New(truncate(string(respBody), 200)),
		}
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, &CallError{Err: fmt.Errorf("undecodable response envelope: %w", err)}
	}
	if len(chat.Choices) == 0 {
		return nil, &CallError{Err: errors.New("response contains no choices")}
	}

	// From here on the call has succeeded. Anything wrong with the verdict
	// payload is a per-rule malformed sub-result, never a retryable error.
	verdicts, malformed := decodeVerdicts(chat.Choices[0].Message.Content, rules)
	if malformed > 0 {
		e.logger.Warn("evaluation response had malformed sub-results",
			"model", e.config.Model,
			"rules", len(rules),
			"malformed", malformed,
		)
	}

	return verdicts, nil
}

// buildUserPrompt lays out the contract and the rule batch for the model.
func buildUserPrompt(contractText string, rules []RuleSpec) string {
	var b strings.Builder
	b.WriteString("CONTRACT TEXT:\n")
	b.WriteString(contractText)
	b.WriteString("\n\nRULES TO EVALUATE:\n")

	ruleJSON, _ := json.MarshalIndent(rules, "", "  ")
	b.Write(ruleJSON)

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
