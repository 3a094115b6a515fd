// Package cache connects to the Redis or Dragonfly server that holds the
// shared daily token budget and, with the redis archive backend, generated
// papers. Every key lives under one prefix.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is used when no prefix is configured.
const DefaultPrefix = "ganitha"

// heartbeatTTL bounds how long a health probe key survives.
const heartbeatTTL = 30 * time.Second

// ErrReadOnly is returned by HealthCheck when the server accepts reads but
// refuses writes, as a replica does. Budget and archive writes would fail.
var ErrReadOnly = errors.New("cache is read-only")

// Cache is a prefixed client.
type Cache struct {
	Client *redis.Client
	Prefix string
}

// ParseURL validates a redis:// or rediss:// connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, errors.New("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse cache URL: %w", err)
	}
	return opts, nil
}

// New connects and pings the server. An empty prefix selects DefaultPrefix.
func New(ctx context.Context, url, prefix string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{Client: client, Prefix: prefix}, nil
}

// Key joins parts under the prefix: Key("paper", "latest") is
// "ganitha:paper:latest".
func (c *Cache) Key(parts ...string) string {
	if c.Prefix == "" {
		return strings.Join(parts, ":")
	}
	return c.Prefix + ":" + strings.Join(parts, ":")
}

// HealthCheck writes a short-lived heartbeat key. A reachable server that
// rejects the write reports ErrReadOnly.
func (c *Cache) HealthCheck(ctx context.Context) error {
	err := c.Client.Set(ctx, c.Key("health"), time.Now().Unix(), heartbeatTTL).Err()
	if err == nil {
		return nil
	}
	if isReadOnly(err) {
		return fmt.Errorf("%w: %v", ErrReadOnly, err)
	}
	return fmt.Errorf("cache heartbeat: %w", err)
}

func isReadOnly(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && strings.HasPrefix(rerr.Error(), "READONLY")
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.Client.Close()
}
