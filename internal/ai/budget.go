package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// BudgetChecker checks and records daily token usage per scope.
// A scope is usually a provider name.
type BudgetChecker interface {
	// Check returns true if the scope has budget remaining today.
	Check(ctx context.Context, scope string) (bool, error)
	// Record adds token usage to today's total for the scope.
	Record(ctx context.Context, scope string, tokens int) error
	// Usage returns today's usage and the budget for the scope.
	Usage(ctx context.Context, scope string) (used int64, budget int64, err error)
}

// InMemoryBudget is a process-local daily budget tracker.
type InMemoryBudget struct {
	mu      sync.RWMutex
	budgets map[string]int64 // scope -> daily limit
	usage   map[string]int64 // scope:day -> tokens used
	now     func() time.Time
}

// NewInMemoryBudget creates a new in-memory budget tracker.
func NewInMemoryBudget() *InMemoryBudget {
	return &InMemoryBudget{
		budgets: make(map[string]int64),
		usage:   make(map[string]int64),
		now:     time.Now,
	}
}

// SetBudget sets the daily token budget for a scope. Zero means unlimited.
func (b *InMemoryBudget) SetBudget(scope string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budgets[scope] = tokens
}

func (b *InMemoryBudget) Check(_ context.Context, scope string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	budget := b.budgets[scope]
	if budget <= 0 {
		// No budget set means unlimited.
		return true, nil
	}
	return b.usage[budgetKey(scope, b.now())] < budget, nil
}

func (b *InMemoryBudget) Record(_ context.Context, scope string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[budgetKey(scope, b.now())] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(_ context.Context, scope string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[budgetKey(scope, b.now())], b.budgets[scope], nil
}

func budgetKey(scope string, t time.Time) string {
	return scope + ":" + t.UTC().Format(time.DateOnly)
}

// BudgetProvider wraps a Provider and refuses calls once the scope's daily
// budget is spent. Refusals are reported as rate-limit errors so callers back
// off the same way they do for provider throttling.
type BudgetProvider struct {
	inner  Provider
	budget BudgetChecker
	scope  string
}

// WithBudget wraps p with a daily token budget.
func WithBudget(p Provider, budget BudgetChecker, scope string) *BudgetProvider {
	return &BudgetProvider{inner: p, budget: budget, scope: scope}
}

func (p *BudgetProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	ok, err := p.budget.Check(ctx, p.scope)
	if err != nil {
		slog.Warn("budget check failed, allowing request", "scope", p.scope, "error", err)
	} else if !ok {
		return CompletionResponse{}, &GenerationError{Kind: KindRateLimited, Provider: p.scope, Err: ErrBudgetExhausted}
	}

	resp, err := p.inner.Complete(ctx, req)
	if err != nil {
		return resp, err
	}

	if err := p.budget.Record(ctx, p.scope, resp.TotalTokens()); err != nil {
		slog.Warn("failed to record token usage", "scope", p.scope, "error", err)
	}
	return resp, nil
}

func (p *BudgetProvider) Models() []ModelInfo {
	return p.inner.Models()
}

func (p *BudgetProvider) HealthCheck(ctx context.Context) error {
	return p.inner.HealthCheck(ctx)
}
