package postgres

import (
	"context"
	"database/sql"
	"errors"

	"clausecheck/internal/store"

	"github.com/google/uuid"
)

// CreateContract inserts a new contract row.
func (s *Store) CreateContract(ctx context.Context, contract *store.Contract) error {
	query := `
		INSERT INTO contracts (id, title, text, ingested_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.ExecContext(ctx, query,
		contract.ID,
		contract.Title,
		contract.Text,
		contract.IngestedAt,
	)
	return err
}

// GetContractByID returns a contract by its ID.
func (s *Store) GetContractByID(ctx context.Context, id uuid.UUID) (*store.Contract, error) {
	query := "SELECT id, title, text, ingested_at FROM contracts WHERE id = $1"

	var contract store.Contract
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&contract.ID,
		&contract.Title,
		&contract.Text,
		&contract.IngestedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &contract, nil
}

// ListContractIDs returns all contract IDs ordered by ingestion time.
func (s *Store) ListContractIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM contracts ORDER BY ingested_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
