package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"clausecheck/internal/store"
	"clausecheck/pkg/api"

	"github.com/google/uuid"
)

func validSeverity(s string) bool {
	switch store.Severity(s) {
	case store.SeverityCritical, store.SeverityHigh, store.SeverityMedium, store.SeverityLow:
		return true
	}
	return false
}

// CreateRule handles POST /rules.
func (h *Handlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Description == "" {
		h.httpError(w, "Name and Description are required", http.StatusBadRequest)
		return
	}
	if !validSeverity(req.Severity) {
		h.httpError(w, "Severity must be one of critical, high, medium, low", http.StatusBadRequest)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	rule := &store.Rule{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Severity:    store.Severity(req.Severity),
		Category:    req.Category,
		Active:      active,
		CreatedAt:   now,
		UpdatedDate: now,
	}

	if err := h.rules.CreateRule(ctx, rule); err != nil {
		h.httpError(w, "Failed to create rule", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusCreated, toRuleResponse(rule))
}

// ListRules handles GET /rules. Returns active rules, optionally filtered
// by category.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.ListActiveRules(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.httpError(w, "Failed to list rules", http.StatusInternalServerError)
		return
	}

	out := make([]api.RuleResponse, len(rules))
	for i := range rules {
		out[i] = toRuleResponse(&rules[i])
	}
	h.respondJson(w, http.StatusOK, out)
}

// GetRule handles GET /rules/{id}.
func (h *Handlers) GetRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid rule id", http.StatusBadRequest)
		return
	}

	rule, err := h.rules.GetRuleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Rule not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to load rule", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, toRuleResponse(rule))
}

// UpdateRule handles PUT /rules/{id}. The rule version advances only when
// content, severity or category changed; an active toggle alone leaves
// existing results fresh.
func (h *Handlers) UpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid rule id", http.StatusBadRequest)
		return
	}

	var req api.UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Description == "" {
		h.httpError(w, "Name and Description are required", http.StatusBadRequest)
		return
	}
	if !validSeverity(req.Severity) {
		h.httpError(w, "Severity must be one of critical, high, medium, low", http.StatusBadRequest)
		return
	}

	rule := &store.Rule{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Severity:    store.Severity(req.Severity),
		Category:    req.Category,
		Active:      req.Active,
	}

	if err := h.rules.UpdateRule(ctx, rule); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Rule not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to update rule", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, toRuleResponse(rule))
}

// DeleteRule handles DELETE /rules/{id}. Stored results keep their frozen
// rule copies.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid rule id", http.StatusBadRequest)
		return
	}

	if err := h.rules.DeleteRule(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.httpError(w, "Rule not found", http.StatusNotFound)
			return
		}
		h.httpError(w, "Failed to delete rule", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
