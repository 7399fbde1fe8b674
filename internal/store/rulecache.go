package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CachedRuleStore wraps a RuleStore with an explicit in-memory cache for
// reads. Every mutation invalidates the whole cache; callers holding a
// reference can also call Invalidate directly after out-of-band changes.
type CachedRuleStore struct {
	inner RuleStore
	ttl   time.Duration

	mu       sync.RWMutex
	byID     map[uuid.UUID]cachedRule
	byFilter map[string]cachedList
}

type cachedRule struct {
	rule      Rule
	expiresAt time.Time
}

type cachedList struct {
	rules     []Rule
	expiresAt time.Time
}

// NewCachedRuleStore creates a caching wrapper around inner.
// Entries expire after ttl even without an explicit invalidation.
func NewCachedRuleStore(inner RuleStore, ttl time.Duration) *CachedRuleStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedRuleStore{
		inner:    inner,
		ttl:      ttl,
		byID:     make(map[uuid.UUID]cachedRule),
		byFilter: make(map[string]cachedList),
	}
}

// Invalidate drops every cached entry.
func (c *CachedRuleStore) Invalidate() {
	c.mu.Lock()
	c.byID = make(map[uuid.UUID]cachedRule)
	c.byFilter = make(map[string]cachedList)
	c.mu.Unlock()
}

func (c *CachedRuleStore) CreateRule(ctx context.Context, rule *Rule) error {
	if err := c.inner.CreateRule(ctx, rule); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

func (c *CachedRuleStore) UpdateRule(ctx context.Context, rule *Rule) error {
	if err := c.inner.UpdateRule(ctx, rule); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

func (c *CachedRuleStore) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := c.inner.DeleteRule(ctx, id); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

func (c *CachedRuleStore) GetRuleByID(ctx context.Context, id uuid.UUID) (*Rule, error) {
	c.mu.RLock()
	entry, ok := c.byID[id]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		rule := entry.rule
		return &rule, nil
	}

	rule, err := c.inner.GetRuleByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byID[id] = cachedRule{rule: *rule, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return rule, nil
}

func (c *CachedRuleStore) ListActiveRules(ctx context.Context, category string) ([]Rule, error) {
	c.mu.RLock()
	entry, ok := c.byFilter[category]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		out := make([]Rule, len(entry.rules))
		copy(out, entry.rules)
		return out, nil
	}

	rules, err := c.inner.ListActiveRules(ctx, category)
	if err != nil {
		return nil, err
	}

	cached := make([]Rule, len(rules))
	copy(cached, rules)

	c.mu.Lock()
	c.byFilter[category] = cachedList{rules: cached, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return rules, nil
}
