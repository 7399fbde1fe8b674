package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clausecheck/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UpsertResult writes a result, overwriting any previous result for the same
// (contract_id, rule_id). On conflict the row keeps its original ID, which is
// written back into result.ID so job result_ids stay consistent.
func (s *Store) UpsertResult(ctx context.Context, result *store.EvaluationResult) error {
	query := `
		INSERT INTO evaluation_results (
			id, contract_id, rule_id,
			rule_name, rule_description, rule_severity, rule_version_date,
			outcome, confidence, explanation, evidence,
			evaluated_date, evaluated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (contract_id, rule_id) DO UPDATE SET
			rule_name = EXCLUDED.rule_name,
			rule_description = EXCLUDED.rule_description,
			rule_severity = EXCLUDED.rule_severity,
			rule_version_date = EXCLUDED.rule_version_date,
			outcome = EXCLUDED.outcome,
			confidence = EXCLUDED.confidence,
			explanation = EXCLUDED.explanation,
			evidence = EXCLUDED.evidence,
			evaluated_date = EXCLUDED.evaluated_date,
			evaluated_by = EXCLUDED.evaluated_by
		RETURNING id
	`

	evidence := result.Evidence
	if evidence == nil {
		evidence = []string{}
	}

	err := s.db.QueryRowContext(ctx, query,
		result.ID,
		result.ContractID,
		result.RuleID,
		result.RuleName,
		result.RuleDescription,
		result.RuleSeverity,
		result.RuleVersionDate,
		result.Outcome,
		result.Confidence,
		result.Explanation,
		pq.Array(evidence),
		result.EvaluatedDate,
		result.EvaluatedBy,
	).Scan(&result.ID)
	if err != nil {
		return fmt.Errorf("upsert result for contract %s rule %s: %w", result.ContractID, result.RuleID, err)
	}

	return nil
}

// GetResult returns the current result for a (contract, rule) pair.
func (s *Store) GetResult(ctx context.Context, contractID, ruleID uuid.UUID) (*store.EvaluationResult, error) {
	query := resultSelect + " WHERE contract_id = $1 AND rule_id = $2"

	var result store.EvaluationResult
	err := scanResult(s.db.QueryRowContext(ctx, query, contractID, ruleID), &result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ListResultsByContract returns all results for a contract, ordered by
// evaluation time so summaries and exports are stable.
func (s *Store) ListResultsByContract(ctx context.Context, contractID uuid.UUID) ([]store.EvaluationResult, error) {
	query := resultSelect + " WHERE contract_id = $1 ORDER BY evaluated_date ASC, rule_id ASC"
	return s.listResults(ctx, query, contractID)
}

// ListResultsByRule returns all results for a rule across contracts.
func (s *Store) ListResultsByRule(ctx context.Context, ruleID uuid.UUID) ([]store.EvaluationResult, error) {
	query := resultSelect + " WHERE rule_id = $1 ORDER BY evaluated_date ASC, contract_id ASC"
	return s.listResults(ctx, query, ruleID)
}

const resultSelect = `
	SELECT id, contract_id, rule_id,
	       rule_name, rule_description, rule_severity, rule_version_date,
	       outcome, confidence, explanation, evidence,
	       evaluated_date, evaluated_by
	FROM evaluation_results`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner, result *store.EvaluationResult) error {
	return row.Scan(
		&result.ID,
		&result.ContractID,
		&result.RuleID,
		&result.RuleName,
		&result.RuleDescription,
		&result.RuleSeverity,
		&result.RuleVersionDate,
		&result.Outcome,
		&result.Confidence,
		&result.Explanation,
		pq.Array(&result.Evidence),
		&result.EvaluatedDate,
		&result.EvaluatedBy,
	)
}

func (s *Store) listResults(ctx context.Context, query string, arg interface{}) ([]store.EvaluationResult, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []store.EvaluationResult
	for rows.Next() {
		var result store.EvaluationResult
		if err := scanResult(rows, &result); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}
