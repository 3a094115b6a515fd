package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// usageTTL keeps a day's counter around long enough to cover time zones.
const usageTTL = 48 * time.Hour

// RedisBudget tracks daily usage in Redis so several processes share one budget.
type RedisBudget struct {
	client  redis.Cmdable
	budgets map[string]int64
	prefix  string
	now     func() time.Time
}

// NewRedisBudget creates a Redis-backed budget tracker. budgets maps scope to
// daily limit; scopes without an entry are unlimited.
func NewRedisBudget(client redis.Cmdable, budgets map[string]int64) *RedisBudget {
	limits := make(map[string]int64, len(budgets))
	for k, v := range budgets {
		limits[k] = v
	}
	return &RedisBudget{
		client:  client,
		budgets: limits,
		prefix:  "ganitha:budget:",
		now:     time.Now,
	}
}

func (b *RedisBudget) key(scope string) string {
	return b.prefix + budgetKey(scope, b.now())
}

func (b *RedisBudget) used(ctx context.Context, scope string) (int64, error) {
	n, err := b.client.Get(ctx, b.key(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get usage: %w", err)
	}
	return n, nil
}

func (b *RedisBudget) Check(ctx context.Context, scope string) (bool, error) {
	budget := b.budgets[scope]
	if budget <= 0 {
		return true, nil
	}
	used, err := b.used(ctx, scope)
	if err != nil {
		return false, err
	}
	return used < budget, nil
}

func (b *RedisBudget) Record(ctx context.Context, scope string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	key := b.key(scope)
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.IncrBy(ctx, key, int64(tokens))
		pipe.Expire(ctx, key, usageTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

func (b *RedisBudget) Usage(ctx context.Context, scope string) (int64, int64, error) {
	used, err := b.used(ctx, scope)
	if err != nil {
		return 0, 0, err
	}
	return used, b.budgets[scope], nil
}
