package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clausecheck/internal/store"

	"github.com/google/uuid"
)

// CreateRule inserts a new rule row.
func (s *Store) CreateRule(ctx context.Context, rule *store.Rule) error {
	query := `
		INSERT INTO rules (id, name, description, severity, category, active, created_at, updated_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		rule.ID,
		rule.Name,
		rule.Description,
		rule.Severity,
		rule.Category,
		rule.Active,
		rule.CreatedAt,
		rule.UpdatedDate,
	)
	return err
}

// UpdateRule updates a rule. The updated_date column advances only when the
// content, severity or category actually changed, so that toggling the
// active flag never marks existing results stale.
func (s *Store) UpdateRule(ctx context.Context, rule *store.Rule) error {
	query := `
		UPDATE rules
		SET name = $2,
		    description = $3,
		    severity = $4,
		    category = $5,
		    active = $6,
		    updated_date = CASE
		        WHEN name <> $2 OR description <> $3 OR severity <> $4 OR category <> $5
		        THEN NOW()
		        ELSE updated_date
		    END
		WHERE id = $1
		RETURNING updated_date
	`

	err := s.db.QueryRowContext(ctx, query,
		rule.ID,
		rule.Name,
		rule.Description,
		rule.Severity,
		rule.Category,
		rule.Active,
	).Scan(&rule.UpdatedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// GetRuleByID returns a rule by its ID.
func (s *Store) GetRuleByID(ctx context.Context, id uuid.UUID) (*store.Rule, error) {
	query := `
		SELECT id, name, description, severity, category, active, created_at, updated_date
		FROM rules
		WHERE id = $1
	`

	var rule store.Rule
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&rule.Severity,
		&rule.Category,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &rule, nil
}

// ListActiveRules returns active rules ordered by creation time. An empty
// category matches all categories.
func (s *Store) ListActiveRules(ctx context.Context, category string) ([]store.Rule, error) {
	query := `
		SELECT id, name, description, severity, category, active, created_at, updated_date
		FROM rules
		WHERE active = TRUE AND ($1 = '' OR category = $1)
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	var rules []store.Rule
	for rows.Next() {
		var rule store.Rule
		if err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Description,
			&rule.Severity,
			&rule.Category,
			&rule.Active,
			&rule.CreatedAt,
			&rule.UpdatedDate,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// DeleteRule removes a rule. Evaluation results keep their frozen copies.
func (s *Store) DeleteRule(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM rules WHERE id = $1", id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
