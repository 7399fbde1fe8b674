// Package worker contains the evaluation job orchestrator.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clausecheck/internal/engine"
	"clausecheck/internal/evaluator"
	"clausecheck/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Store combines the repositories the runner needs.
type Store interface {
	store.RuleStore
	store.ContractStore
	store.ResultStore
	store.JobStore
}

// Config holds configuration for the evaluation runner.
type Config struct {
	Concurrency  int           // max jobs processed at once; caps concurrent outbound LLM calls
	PollInterval time.Duration // base interval between claim attempts
	MaxBackoff   time.Duration // cap for the empty-queue poll backoff
	BatchSize    int           // rules per evaluator call
	MaxRetries   int           // retries per batch call on outright failure
	RetryDelay   time.Duration // base delay for exponential backoff between retries
}

// Runner claims pending evaluation jobs and drives them to a terminal state.
// Each job is processed by exactly one goroutine with sequential batch
// dispatch; distinct jobs run concurrently up to Config.Concurrency.
type Runner struct {
	store     Store
	evaluator evaluator.Evaluator
	config    Config
	logger    *slog.Logger
	done      chan struct{}
}

// New creates a new evaluation runner.
func New(s Store, eval evaluator.Evaluator, config Config, logger *slog.Logger) *Runner {
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = engine.DefaultBatchSize
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 2
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 2 * time.Second
	}

	return &Runner{
		store:     s,
		evaluator: eval,
		config:    config,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Run starts the claim loop. It blocks until the context is cancelled, then
// drains: no new jobs are claimed but running jobs finish their current batch
// sequence.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("evaluation runner starting", "concurrency", r.config.Concurrency)

	sem := make(chan struct{}, r.config.Concurrency)
	var wg sync.WaitGroup

	pollNow := make(chan struct{}, 1)
	currentBackoff := r.config.PollInterval

	triggerPoll := func() {
		select {
		case pollNow <- struct{}{}:
		default:
		}
	}
	triggerPoll()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("context cancelled, waiting for running jobs to finish")
			wg.Wait()
			close(r.done)
			return ctx.Err()

		case <-time.After(currentBackoff):
			triggerPoll()

		case <-pollNow:
			claimed := 0
			for len(sem) < r.config.Concurrency {
				job, err := r.store.ClaimNextJob(ctx)
				if errors.Is(err, store.ErrNotFound) {
					break
				}
				if err != nil {
					r.logger.Error("claim failed", "error", err)
					break
				}

				claimed++
				sem <- struct{}{}
				wg.Add(1)
				go func(job *store.EvaluationJob) {
					defer wg.Done()
					defer func() {
						<-sem
						triggerPoll()
					}()
					r.processJob(ctx, job)
				}(job)
			}

			if claimed == 0 {
				// Empty queue, back off exponentially up to the cap.
				currentBackoff = currentBackoff * 2
				if currentBackoff > r.config.MaxBackoff {
					currentBackoff = r.config.MaxBackoff
				}
			} else {
				currentBackoff = r.config.PollInterval
			}
		}
	}
}

// Done returns a channel that is closed when the runner has fully stopped.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// workItem is one (contract, rule batch) evaluation call.
type workItem struct {
	contract *store.Contract
	batch    []store.Rule
}

// processJob drives one claimed job to a terminal state.
func (r *Runner) processJob(ctx context.Context, job *store.EvaluationJob) {
	tracer := otel.Tracer("evaluation-runner")
	ctx, span := tracer.Start(ctx, "process_job",
		trace.WithAttributes(
			attribute.String("job.id", job.ID.String()),
			attribute.String("job.type", string(job.JobType)),
		),
	)
	defer span.End()

	logger := r.logger.With("job_id", job.ID, "job_type", job.JobType)

	contracts, rules, err := r.resolveWork(ctx, job)
	if err != nil {
		// Unknown rule or contract at dispatch is fatal: no partial results
		// are possible, so the job fails immediately.
		span.RecordError(err)
		logger.Error("dispatch failed", "error", err)
		r.finishFailed(ctx, logger, job.ID, err.Error())
		return
	}

	total := len(contracts) * len(rules)
	if err := r.withStorageRetry(ctx, func() error {
		return r.store.SetJobTotal(ctx, job.ID, total)
	}); err != nil {
		r.finishFailed(ctx, logger, job.ID, fmt.Sprintf("persist job total: %v", err))
		return
	}

	if total == 0 {
		logger.Info("job has no work", "contracts", len(contracts), "rules", len(rules))
		r.finishCompleted(ctx, logger, job.ID)
		return
	}

	var items []workItem
	for i := range contracts {
		for _, batch := range engine.PlanBatches(rules, r.config.BatchSize) {
			items = append(items, workItem{contract: contracts[i], batch: batch})
		}
	}

	var (
		completed    int
		failed       int
		resultIDs    []uuid.UUID
		anySucceeded bool
	)

	for _, item := range items {
		// Cooperative cancellation: checked between batches, never mid-batch,
		// so an in-flight call always completes and its results are kept.
		cancelled, err := r.cancelRequested(ctx, job.ID)
		if err != nil {
			logger.Error("cancellation check failed", "error", err)
		} else if cancelled {
			logger.Info("job cancelled", "completed_rules", completed, "failed_rules", failed)
			if err := r.store.MarkCancelled(ctx, job.ID); err != nil && !errors.Is(err, store.ErrJobTerminal) {
				logger.Error("mark cancelled failed", "error", err)
			}
			return
		}

		verdicts, callErr := r.evaluateWithRetry(ctx, item.contract.Text, item.batch)
		if callErr != nil {
			span.RecordError(callErr)
			if !anySucceeded {
				// Retries exhausted before any batch succeeded: nothing of
				// value has been produced, escalate to job failure.
				logger.Error("batch call failed with no prior successes", "error", callErr)
				r.finishFailed(ctx, logger, job.ID, fmt.Sprintf("evaluation call failed: %v", callErr))
				return
			}
			// Partial knowledge is still useful: record the unattempted rules
			// and keep going.
			logger.Warn("batch call failed, recording rules as not applicable", "error", callErr)
			verdicts = unattemptedVerdicts(item.batch)
		} else {
			anySucceeded = true
		}

		ids, batchCompleted, batchFailed, err := r.persistVerdicts(ctx, item, verdicts)
		if err != nil {
			span.RecordError(err)
			logger.Error("result write failed", "error", err)
			r.finishFailed(ctx, logger, job.ID, fmt.Sprintf("persist results: %v", err))
			return
		}

		completed += batchCompleted
		failed += batchFailed
		resultIDs = append(resultIDs, ids...)

		// One progress write per batch bounds write amplification while
		// keeping coarse-grained visibility for pollers.
		if err := r.withStorageRetry(ctx, func() error {
			return r.store.UpdateJobProgress(ctx, job.ID, completed, failed, resultIDs)
		}); err != nil {
			logger.Error("progress write failed", "error", err)
			r.finishFailed(ctx, logger, job.ID, fmt.Sprintf("persist progress: %v", err))
			return
		}
	}

	span.SetAttributes(
		attribute.Int("job.completed_rules", completed),
		attribute.Int("job.failed_rules", failed),
	)
	logger.Info("job completed", "completed_rules", completed, "failed_rules", failed)
	r.finishCompleted(ctx, logger, job.ID)
}

// resolveWork loads the contracts and rules a job targets. Any unknown ID is
// a fatal dispatch error.
func (r *Runner) resolveWork(ctx context.Context, job *store.EvaluationJob) ([]*store.Contract, []store.Rule, error) {
	var rules []store.Rule
	if len(job.RuleIDs) > 0 {
		for _, id := range job.RuleIDs {
			rule, err := r.store.GetRuleByID(ctx, id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil, nil, fmt.Errorf("unknown rule %s", id)
				}
				return nil, nil, fmt.Errorf("load rule %s: %w", id, err)
			}
			rules = append(rules, *rule)
		}
	} else {
		var err error
		rules, err = r.store.ListActiveRules(ctx, "")
		if err != nil {
			return nil, nil, fmt.Errorf("list active rules: %w", err)
		}
	}

	contractIDs := job.ContractIDs
	if job.JobType == store.JobTypeReevaluateStale {
		// Target set is resolved at dispatch: contracts whose stored result
		// for this rule predates the rule's current version.
		if len(rules) != 1 {
			return nil, nil, fmt.Errorf("reevaluate_stale expects exactly one rule, got %d", len(rules))
		}
		results, err := r.store.ListResultsByRule(ctx, rules[0].ID)
		if err != nil {
			return nil, nil, fmt.Errorf("scan results for rule %s: %w", rules[0].ID, err)
		}
		contractIDs = nil
		for _, stale := range engine.FilterStale(results, rules[0].UpdatedDate) {
			contractIDs = append(contractIDs, stale.ContractID)
		}
	} else if len(contractIDs) == 0 {
		var err error
		contractIDs, err = r.store.ListContractIDs(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("list contracts: %w", err)
		}
	}

	var contracts []*store.Contract
	for _, id := range contractIDs {
		contract, err := r.store.GetContractByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil, fmt.Errorf("unknown contract %s", id)
			}
			return nil, nil, fmt.Errorf("load contract %s: %w", id, err)
		}
		contracts = append(contracts, contract)
	}

	return contracts, rules, nil
}

// evaluateWithRetry invokes the evaluator with bounded retry and exponential
// backoff on retryable call failures.
func (r *Runner) evaluateWithRetry(ctx context.Context, contractText string, batch []store.Rule) ([]evaluator.Verdict, error) {
	specs := make([]evaluator.RuleSpec, len(batch))
	for i, rule := range batch {
		specs[i] = evaluator.RuleSpec{
			RuleID:      rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Severity:    string(rule.Severity),
		}
	}

	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := r.config.RetryDelay * (1 << (attempt - 1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		verdicts, err := r.evaluator.Evaluate(ctx, contractText, specs)
		if err == nil {
			return verdicts, nil
		}
		lastErr = err

		var callErr *evaluator.CallError
		if !errors.As(err, &callErr) || !callErr.Retryable() {
			return nil, err
		}
	}

	return nil, lastErr
}

// persistVerdicts upserts one result per verdict and splits the batch into
// completed and failed (malformed) counts.
func (r *Runner) persistVerdicts(ctx context.Context, item workItem, verdicts []evaluator.Verdict) ([]uuid.UUID, int, int, error) {
	ruleByID := make(map[uuid.UUID]*store.Rule, len(item.batch))
	for i := range item.batch {
		ruleByID[item.batch[i].ID] = &item.batch[i]
	}

	var (
		ids       []uuid.UUID
		completed int
		failed    int
	)

	for _, verdict := range verdicts {
		rule, ok := ruleByID[verdict.RuleID]
		if !ok {
			continue
		}

		result := &store.EvaluationResult{
			ID:              uuid.New(),
			ContractID:      item.contract.ID,
			RuleID:          rule.ID,
			RuleName:        rule.Name,
			RuleDescription: rule.Description,
			RuleSeverity:    rule.Severity,
			// The rule version captured when the batch was dispatched; this
			// is what the staleness check compares against later edits.
			RuleVersionDate: rule.UpdatedDate,
			Outcome:         verdict.Outcome,
			Confidence:      verdict.Confidence,
			Explanation:     verdict.Explanation,
			Evidence:        verdict.Evidence,
			EvaluatedDate:   time.Now().UTC(),
			EvaluatedBy:     r.evaluator.Name(),
		}

		if err := r.withStorageRetry(ctx, func() error {
			return r.store.UpsertResult(ctx, result)
		}); err != nil {
			return ids, completed, failed, err
		}

		ids = append(ids, result.ID)
		if verdict.Malformed {
			failed++
		} else {
			completed++
		}
	}

	return ids, completed, failed, nil
}

// unattemptedVerdicts records a whole batch as not applicable after its call
// failed beyond retries, so no rule is silently dropped.
func unattemptedVerdicts(batch []store.Rule) []evaluator.Verdict {
	verdicts := make([]evaluator.Verdict, len(batch))
	for i, rule := range batch {
		verdicts[i] = evaluator.Verdict{
			RuleID:      rule.ID,
			Outcome:     store.OutcomeNotApplicable,
			Confidence:  0,
			Explanation: "evaluation call failed after retries; rule not attempted",
			Evidence:    []string{},
			Malformed:   true,
		}
	}
	return verdicts
}

func (r *Runner) cancelRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	job, err := r.store.GetJobByID(ctx, id)
	if err != nil {
		return false, err
	}
	return job.CancelRequested, nil
}

// withStorageRetry retries a storage write a few times before giving up.
func (r *Runner) withStorageRetry(ctx context.Context, fn func() error) error {
	const writeRetries = 2

	var err error
	for attempt := 0; attempt <= writeRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(250 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

func (r *Runner) finishCompleted(ctx context.Context, logger *slog.Logger, id uuid.UUID) {
	if err := r.store.CompleteJob(ctx, id); err != nil && !errors.Is(err, store.ErrJobTerminal) {
		logger.Error("complete job failed", "error", err)
	}
}

func (r *Runner) finishFailed(ctx context.Context, logger *slog.Logger, id uuid.UUID, msg string) {
	if err := r.store.FailJob(ctx, id, msg); err != nil && !errors.Is(err, store.ErrJobTerminal) {
		logger.Error("fail job failed", "error", err)
	}
}
