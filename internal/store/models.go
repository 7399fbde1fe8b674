// Package store contains the database layer for clausecheck.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies how serious a rule violation is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rule is a natural-language compliance criterion evaluated against contract text.
type Rule struct {
	ID          uuid.UUID
	Name        string
	Description string // the evaluation criterion, in natural language
	Severity    Severity
	Category    string
	Active      bool
	CreatedAt   time.Time
	// UpdatedDate advances only when Name, Description, Severity or Category
	// change. Toggling Active does not touch it, so prior results stay fresh.
	UpdatedDate time.Time
}

// ContentEquals reports whether the version-relevant fields of two rules match.
func (r *Rule) ContentEquals(other *Rule) bool {
	return r.Name == other.Name &&
		r.Description == other.Description &&
		r.Severity == other.Severity &&
		r.Category == other.Category
}

// Contract is an ingested contract document.
type Contract struct {
	ID         uuid.UUID
	Title      string
	Text       string
	IngestedAt time.Time
}

// Outcome is the verdict of a single rule evaluation.
type Outcome string

const (
	OutcomePass          Outcome = "pass"
	OutcomeFail          Outcome = "fail"
	OutcomePartial       Outcome = "partial"
	OutcomeNotApplicable Outcome = "not_applicable"
)

// ValidOutcome reports whether s is a known outcome value.
func ValidOutcome(s string) bool {
	switch Outcome(s) {
	case OutcomePass, OutcomeFail, OutcomePartial, OutcomeNotApplicable:
		return true
	}
	return false
}

// EvaluationResult is the current verdict for one (contract, rule) pair.
// The rule fields are frozen copies taken at evaluation time so history
// survives later rule edits or deletion.
type EvaluationResult struct {
	ID              uuid.UUID
	ContractID      uuid.UUID
	RuleID          uuid.UUID
	RuleName        string
	RuleDescription string
	RuleSeverity    Severity
	// RuleVersionDate is the rule's UpdatedDate captured at dispatch time.
	// A result is stale when this predates the rule's current UpdatedDate.
	RuleVersionDate time.Time
	Outcome         Outcome
	Confidence      float64 // in [0, 1]
	Explanation     string
	Evidence        []string // ordered contract-text excerpts, possibly empty
	EvaluatedDate   time.Time
	EvaluatedBy     string
}

// JobType identifies what an evaluation job targets.
type JobType string

const (
	JobTypeEvaluateContract JobType = "evaluate_contract"
	JobTypeEvaluateRule     JobType = "evaluate_rule"
	JobTypeReevaluateStale  JobType = "reevaluate_stale"
	JobTypeBatchEvaluate    JobType = "batch_evaluate"
)

// JobStatus is the lifecycle state of an evaluation job.
// Transitions are one-directional: pending -> in_progress -> terminal.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status can never change again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// EvaluationJob is the unit of async, cancellable, progress-tracked work.
type EvaluationJob struct {
	ID             uuid.UUID
	JobType        JobType
	Status         JobStatus
	TotalRules     int // total work items; resolved at dispatch when the rule set is implicit
	CompletedRules int
	FailedRules    int
	ContractIDs    []uuid.UUID
	RuleIDs        []uuid.UUID
	// CancelRequested is the cooperative cancellation flag. The worker checks
	// it between batches, never mid-batch, so in-flight results are kept.
	CancelRequested bool
	StartedDate     *time.Time
	CompletedDate   *time.Time
	ErrorMessage    *string
	ResultIDs       []uuid.UUID // results written so far, in commit order
	CreatedAt       time.Time
}

// Progress returns completed work as a fraction in [0, 1].
// It is monotonically non-decreasing for the life of a job.
func (j *EvaluationJob) Progress() float64 {
	if j.TotalRules <= 0 {
		if j.Status == JobStatusCompleted {
			return 1
		}
		return 0
	}
	return float64(j.CompletedRules+j.FailedRules) / float64(j.TotalRules)
}
