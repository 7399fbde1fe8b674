package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrJobTerminal is returned when an operation targets a job that has
// already reached a terminal state.
var ErrJobTerminal = errors.New("job is in a terminal state")

// RuleStore handles the persistence of compliance rules.
type RuleStore interface {
	// CreateRule inserts a new rule.
	CreateRule(ctx context.Context, rule *Rule) error

	// UpdateRule updates a rule. UpdatedDate advances only when the rule's
	// content, severity or category changed; an active-flag toggle alone
	// leaves it untouched.
	UpdateRule(ctx context.Context, rule *Rule) error

	// GetRuleByID returns a rule by its ID.
	GetRuleByID(ctx context.Context, id uuid.UUID) (*Rule, error)

	// ListActiveRules returns active rules, optionally filtered by category,
	// ordered by creation time for deterministic batch planning.
	ListActiveRules(ctx context.Context, category string) ([]Rule, error)

	// DeleteRule removes a rule. Existing results keep their frozen copies.
	DeleteRule(ctx context.Context, id uuid.UUID) error
}

// ContractStore handles the persistence of ingested contracts.
type ContractStore interface {
	// CreateContract inserts a new contract document.
	CreateContract(ctx context.Context, contract *Contract) error

	// GetContractByID returns a contract by its ID.
	GetContractByID(ctx context.Context, id uuid.UUID) (*Contract, error)

	// ListContractIDs returns all contract IDs, ordered by ingestion time.
	ListContractIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ResultStore handles evaluation results. There is at most one current
// result per (contract_id, rule_id) pair.
type ResultStore interface {
	// UpsertResult writes a result, overwriting any previous result for the
	// same (contract_id, rule_id). The stored result keeps its original ID
	// on overwrite; result.ID is updated to the stored value.
	UpsertResult(ctx context.Context, result *EvaluationResult) error

	// GetResult returns the current result for a (contract, rule) pair.
	GetResult(ctx context.Context, contractID, ruleID uuid.UUID) (*EvaluationResult, error)

	// ListResultsByContract returns all results for a contract.
	ListResultsByContract(ctx context.Context, contractID uuid.UUID) ([]EvaluationResult, error)

	// ListResultsByRule returns all results for a rule across contracts.
	ListResultsByRule(ctx context.Context, ruleID uuid.UUID) ([]EvaluationResult, error)
}

// JobStore handles the evaluation job lifecycle. Status transitions are
// one-directional and terminal states are never revisited.
type JobStore interface {
	// CreateJob inserts a new job in status pending.
	CreateJob(ctx context.Context, job *EvaluationJob) error

	// GetJobByID returns a job by its ID.
	GetJobByID(ctx context.Context, id uuid.UUID) (*EvaluationJob, error)

	// ClaimNextJob atomically claims the oldest pending job, transitioning
	// it to in_progress with started_date set. Claiming uses row locking so
	// each job is processed by exactly one worker.
	// Returns ErrNotFound when no pending job is available.
	ClaimNextJob(ctx context.Context) (*EvaluationJob, error)

	// SetJobTotal records the resolved work-item total once the rule and
	// contract sets are known at dispatch.
	SetJobTotal(ctx context.Context, id uuid.UUID, totalRules int) error

	// UpdateJobProgress persists progress counters and the result IDs
	// written so far. Called once per batch, not per rule.
	UpdateJobProgress(ctx context.Context, id uuid.UUID, completed, failed int, resultIDs []uuid.UUID) error

	// CompleteJob transitions a job to completed and sets completed_date.
	CompleteJob(ctx context.Context, id uuid.UUID) error

	// FailJob transitions a job to failed with an error message.
	FailJob(ctx context.Context, id uuid.UUID, errMsg string) error

	// RequestCancel flags a job for cooperative cancellation. A pending job
	// is cancelled immediately; an in_progress job finishes its current
	// batch first. Returns ErrJobTerminal if the job already finished.
	RequestCancel(ctx context.Context, id uuid.UUID) error

	// MarkCancelled transitions an in_progress job to cancelled.
	MarkCancelled(ctx context.Context, id uuid.UUID) error

	// DeleteJobsCompletedBefore removes terminal jobs whose completed_date
	// is older than the cutoff. Returns the number of jobs deleted.
	DeleteJobsCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// CountActiveJobs returns the number of pending or in_progress jobs.
	CountActiveJobs(ctx context.Context) (int64, error)
}
