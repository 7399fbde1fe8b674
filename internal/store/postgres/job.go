package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clausecheck/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CreateJob inserts a new job in status pending.
func (s *Store) CreateJob(ctx context.Context, job *store.EvaluationJob) error {
	query := `
		INSERT INTO evaluation_jobs (
			id, job_type, status, total_rules, completed_rules, failed_rules,
			contract_ids, rule_ids, cancel_requested, result_ids, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.JobType,
		job.Status,
		job.TotalRules,
		job.CompletedRules,
		job.FailedRules,
		pq.Array(uuidStrings(job.ContractIDs)),
		pq.Array(uuidStrings(job.RuleIDs)),
		job.CancelRequested,
		pq.Array(uuidStrings(job.ResultIDs)),
		job.CreatedAt,
	)
	return err
}

// GetJobByID returns a job by its ID.
func (s *Store) GetJobByID(ctx context.Context, id uuid.UUID) (*store.EvaluationJob, error) {
	query := jobSelect + " WHERE id = $1"

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return job, err
}

// ClaimNextJob claims the oldest pending job using FOR UPDATE SKIP LOCKED so
// concurrent workers never process the same job. The claimed job transitions
// to in_progress with started_date set.
func (s *Store) ClaimNextJob(ctx context.Context) (*store.EvaluationJob, error) {
	query := `
		UPDATE evaluation_jobs
		SET status = $1, started_date = NOW()
		WHERE id = (
			SELECT id FROM evaluation_jobs
			WHERE status = $2
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, job_type, status, total_rules, completed_rules, failed_rules,
		          contract_ids, rule_ids, cancel_requested,
		          started_date, completed_date, error_message, result_ids, created_at
	`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, store.JobStatusInProgress, store.JobStatusPending))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return job, err
}

// SetJobTotal records the resolved work-item total.
func (s *Store) SetJobTotal(ctx context.Context, id uuid.UUID, totalRules int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE evaluation_jobs SET total_rules = $2 WHERE id = $1",
		id, totalRules,
	)
	return err
}

// UpdateJobProgress persists progress counters and accumulated result IDs.
// Only the owning worker writes progress, so last-writer-wins is safe here.
func (s *Store) UpdateJobProgress(ctx context.Context, id uuid.UUID, completed, failed int, resultIDs []uuid.UUID) error {
	query := `
		UPDATE evaluation_jobs
		SET completed_rules = $2, failed_rules = $3, result_ids = $4
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, id, completed, failed, pq.Array(uuidStrings(resultIDs)))
	return err
}

// CompleteJob transitions an in_progress job to completed.
func (s *Store) CompleteJob(ctx context.Context, id uuid.UUID) error {
	return s.finishJob(ctx, id, store.JobStatusCompleted, nil)
}

// FailJob transitions a job to failed with an error message. Results already
// written remain valid and queryable.
func (s *Store) FailJob(ctx context.Context, id uuid.UUID, errMsg string) error {
	return s.finishJob(ctx, id, store.JobStatusFailed, &errMsg)
}

// MarkCancelled transitions an in_progress job to cancelled.
func (s *Store) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	return s.finishJob(ctx, id, store.JobStatusCancelled, nil)
}

// finishJob moves a non-terminal job to a terminal state. The status guard
// keeps transitions one-directional even under races.
func (s *Store) finishJob(ctx context.Context, id uuid.UUID, status store.JobStatus, errMsg *string) error {
	query := `
		UPDATE evaluation_jobs
		SET status = $2, completed_date = NOW(), error_message = COALESCE($3, error_message)
		WHERE id = $1 AND status IN ($4, $5)
	`

	res, err := s.db.ExecContext(ctx, query, id, status, errMsg,
		store.JobStatusPending, store.JobStatusInProgress)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrJobTerminal
	}
	return nil
}

// RequestCancel flags a job for cooperative cancellation. A still-pending job
// is cancelled in place; an in_progress job keeps running until its worker
// checks the flag between batches.
func (s *Store) RequestCancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE evaluation_jobs
		SET cancel_requested = TRUE,
		    status = CASE WHEN status = $2 THEN $3 ELSE status END,
		    completed_date = CASE WHEN status = $2 THEN NOW() ELSE completed_date END
		WHERE id = $1 AND status IN ($2, $4)
	`

	res, err := s.db.ExecContext(ctx, query, id,
		store.JobStatusPending, store.JobStatusCancelled, store.JobStatusInProgress)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish missing from already-terminal for the API layer.
		if _, err := s.GetJobByID(ctx, id); errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return store.ErrJobTerminal
	}
	return nil
}

// DeleteJobsCompletedBefore removes terminal jobs past the retention window.
func (s *Store) DeleteJobsCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM evaluation_jobs
		WHERE completed_date IS NOT NULL AND completed_date < $1
	`

	res, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reap jobs: %w", err)
	}
	return res.RowsAffected()
}

// CountActiveJobs returns the number of pending or in_progress jobs.
func (s *Store) CountActiveJobs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM evaluation_jobs WHERE status IN ($1, $2)",
		store.JobStatusPending, store.JobStatusInProgress,
	).Scan(&count)
	return count, err
}

const jobSelect = `
	SELECT id, job_type, status, total_rules, completed_rules, failed_rules,
	       contract_ids, rule_ids, cancel_requested,
	       started_date, completed_date, error_message, result_ids, created_at
	FROM evaluation_jobs`

func scanJob(row rowScanner) (*store.EvaluationJob, error) {
	var job store.EvaluationJob
	var contractIDs, ruleIDs, resultIDs []string

	err := row.Scan(
		&job.ID,
		&job.JobType,
		&job.Status,
		&job.TotalRules,
		&job.CompletedRules,
		&job.FailedRules,
		pq.Array(&contractIDs),
		pq.Array(&ruleIDs),
		&job.CancelRequested,
		&job.StartedDate,
		&job.CompletedDate,
		&job.ErrorMessage,
		pq.Array(&resultIDs),
		&job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if job.ContractIDs, err = parseUUIDs(contractIDs); err != nil {
		return nil, err
	}
	if job.RuleIDs, err = parseUUIDs(ruleIDs); err != nil {
		return nil, err
	}
	if job.ResultIDs, err = parseUUIDs(resultIDs); err != nil {
		return nil, err
	}

	return &job, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse uuid %q: %w", s, err)
		}
		out[i] = id
	}
	return out, nil
}
