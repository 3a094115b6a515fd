package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/ganitha/internal/platform/cache"
	"github.com/p-n-ai/ganitha/internal/question"
)

// DefaultRedisTTL bounds how long papers stay in Redis.
const DefaultRedisTTL = 7 * 24 * time.Hour

// RedisStore keeps papers as JSON under <prefix>:paper:<id>, with
// <prefix>:paper:latest naming the newest one.
type RedisStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewRedisStore creates a store on c. A zero ttl keeps papers forever.
func NewRedisStore(c *cache.Cache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, paper question.Paper) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper %s: %w", paper.ID, err)
	}
	_, err = s.cache.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.cache.Key("paper", paper.ID), data, s.ttl)
		pipe.Set(ctx, s.cache.Key("paper", "latest"), paper.ID, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save paper %s: %w", paper.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (question.Paper, error) {
	data, err := s.cache.Client.Get(ctx, s.cache.Key("paper", id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return question.Paper{}, ErrNotFound
	}
	if err != nil {
		return question.Paper{}, fmt.Errorf("load paper %s: %w", id, err)
	}
	var paper question.Paper
	if err := json.Unmarshal(data, &paper); err != nil {
		return question.Paper{}, fmt.Errorf("decode paper %s: %w", id, err)
	}
	return paper, nil
}

func (s *RedisStore) Latest(ctx context.Context) (question.Paper, error) {
	id, err := s.cache.Client.Get(ctx, s.cache.Key("paper", "latest")).Result()
	if errors.Is(err, redis.Nil) {
		return question.Paper{}, ErrNotFound
	}
	if err != nil {
		return question.Paper{}, fmt.Errorf("load latest paper id: %w", err)
	}
	return s.Get(ctx, id)
}
