package handlers

import (
	"context"
	"sync"
	"time"

	"clausecheck/internal/store"

	"github.com/google/uuid"
)

// mockStore implements StoreFactory for handler tests.
type mockStore struct {
	mu sync.Mutex

	pingErr error

	contracts map[uuid.UUID]*store.Contract
	jobs      map[uuid.UUID]*store.EvaluationJob
	results   map[uuid.UUID][]store.EvaluationResult // keyed by contract ID
	byRule    map[uuid.UUID][]store.EvaluationResult

	createContractErr error
	createJobErr      error
	listResultsErr    error
	requestCancelErr  error

	createdJobs []*store.EvaluationJob

	// completeJobOnGet flips created jobs to completed the first time they
	// are polled, simulating a worker finishing during a sync wait.
	completeJobOnGet bool
}

func newMockStore() *mockStore {
	return &mockStore{
		contracts: make(map[uuid.UUID]*store.Contract),
		jobs:      make(map[uuid.UUID]*store.EvaluationJob),
		results:   make(map[uuid.UUID][]store.EvaluationResult),
		byRule:    make(map[uuid.UUID][]store.EvaluationResult),
	}
}

func (m *mockStore) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockStore) CreateContract(ctx context.Context, contract *store.Contract) error {
	if m.createContractErr != nil {
		return m.createContractErr
	}
	m.mu.Lock()
	m.contracts[contract.ID] = contract
	m.mu.Unlock()
	return nil
}

func (m *mockStore) GetContractByID(ctx context.Context, id uuid.UUID) (*store.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contract, ok := m.contracts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return contract, nil
}

func (m *mockStore) ListContractIDs(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for id := range m.contracts {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockStore) UpsertResult(ctx context.Context, result *store.EvaluationResult) error {
	return nil
}

func (m *mockStore) GetResult(ctx context.Context, contractID, ruleID uuid.UUID) (*store.EvaluationResult, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) ListResultsByContract(ctx context.Context, contractID uuid.UUID) ([]store.EvaluationResult, error) {
	if m.listResultsErr != nil {
		return nil, m.listResultsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[contractID], nil
}

func (m *mockStore) ListResultsByRule(ctx context.Context, ruleID uuid.UUID) ([]store.EvaluationResult, error) {
	if m.listResultsErr != nil {
		return nil, m.listResultsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byRule[ruleID], nil
}

func (m *mockStore) CreateJob(ctx context.Context, job *store.EvaluationJob) error {
	if m.createJobErr != nil {
		return m.createJobErr
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.createdJobs = append(m.createdJobs, job)
	m.mu.Unlock()
	return nil
}

func (m *mockStore) GetJobByID(ctx context.Context, id uuid.UUID) (*store.EvaluationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if m.completeJobOnGet && !job.Status.Terminal() {
		job.Status = store.JobStatusCompleted
		now := time.Now().UTC()
		job.CompletedDate = &now
	}
	copied := *job
	return &copied, nil
}

func (m *mockStore) ClaimNextJob(ctx context.Context) (*store.EvaluationJob, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) SetJobTotal(ctx context.Context, id uuid.UUID, totalRules int) error { return nil }

func (m *mockStore) UpdateJobProgress(ctx context.Context, id uuid.UUID, completed, failed int, resultIDs []uuid.UUID) error {
	return nil
}

func (m *mockStore) CompleteJob(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockStore) FailJob(ctx context.Context, id uuid.UUID, errMsg string) error { return nil }

func (m *mockStore) RequestCancel(ctx context.Context, id uuid.UUID) error {
	if m.requestCancelErr != nil {
		return m.requestCancelErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	if job.Status.Terminal() {
		return store.ErrJobTerminal
	}
	job.CancelRequested = true
	return nil
}

func (m *mockStore) MarkCancelled(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockStore) DeleteJobsCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *mockStore) CountActiveJobs(ctx context.Context) (int64, error) { return 0, nil }

// mockRuleStore implements store.RuleStore for handler tests.
type mockRuleStore struct {
	mu    sync.Mutex
	rules map[uuid.UUID]*store.Rule

	createErr error
	updateErr error
	listErr   error
}

func newMockRuleStore() *mockRuleStore {
	return &mockRuleStore{rules: make(map[uuid.UUID]*store.Rule)}
}

func (m *mockRuleStore) CreateRule(ctx context.Context, rule *store.Rule) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	m.rules[rule.ID] = rule
	m.mu.Unlock()
	return nil
}

func (m *mockRuleStore) UpdateRule(ctx context.Context, rule *store.Rule) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[rule.ID]; !ok {
		return store.ErrNotFound
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *mockRuleStore) GetRuleByID(ctx context.Context, id uuid.UUID) (*store.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule, ok := m.rules[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rule, nil
}

func (m *mockRuleStore) ListActiveRules(ctx context.Context, category string) ([]store.Rule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Rule
	for _, rule := range m.rules {
		if rule.Active && (category == "" || rule.Category == category) {
			out = append(out, *rule)
		}
	}
	return out, nil
}

func (m *mockRuleStore) DeleteRule(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

func testHandlers(s *mockStore, rules *mockRuleStore) *Handlers {
	return New(s, rules, Config{SyncWaitTimeout: time.Second})
}
