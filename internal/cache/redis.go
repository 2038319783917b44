// Package cache provides the Redis access layer for catalog caching and rate limiting.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Every caller degrades without Redis (the catalog goes upstream, the rate
// limiter fails open), so command timeouts stay well below request timeouts.
const (
	DefaultPoolSize       = 10
	DefaultCommandTimeout = 500 * time.Millisecond
	DefaultDialTimeout    = 2 * time.Second
)

// Option customizes the Redis client.
type Option func(*redis.Options)

// WithPoolSize sets the maximum number of socket connections.
func WithPoolSize(n int) Option {
	return func(o *redis.Options) {
		if n > 0 {
			o.PoolSize = n
		}
	}
}

// WithCommandTimeout sets the read and write timeout of each command.
func WithCommandTimeout(d time.Duration) Option {
	return func(o *redis.Options) {
		if d > 0 {
			o.ReadTimeout = d
			o.WriteTimeout = d
		}
	}
}

// Cache serves the catalog cache and the shared rate limit buckets.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string, opts ...Option) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.ClientName = "cloud-store"
	opt.PoolSize = DefaultPoolSize
	opt.MinIdleConns = 1
	opt.DialTimeout = DefaultDialTimeout
	opt.ReadTimeout = DefaultCommandTimeout
	opt.WriteTimeout = DefaultCommandTimeout
	opt.PoolTimeout = DefaultCommandTimeout + time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	for _, o := range opts {
		o(opt)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping checks Redis connectivity for the readiness check.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
