package cache

import (
	"context"
	"log/slog"
	"time"

	"nipcheck/pkg/platform/circuit"
)

// Backend is the read/write surface shared by the cache implementations.
type Backend interface {
	Get(ctx context.Context, pattern string) ([]string, bool, error)
	Set(ctx context.Context, pattern string, possibilities []string, ttl time.Duration) error
}

// FallbackCache routes to primary while it is healthy and to fallback while
// the breaker is open. Primary errors are absorbed: the caller sees a miss
// (Get) or a fallback write (Set).
type FallbackCache struct {
	primary  Backend
	fallback Backend
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFallbackCache(primary, fallback Backend, breaker *circuit.Breaker, logger *slog.Logger) *FallbackCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackCache{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   logger,
	}
}

func (c *FallbackCache) Get(ctx context.Context, pattern string) ([]string, bool, error) {
	if !c.breaker.Allow() {
		return c.fallback.Get(ctx, pattern)
	}
	possibilities, ok, err := c.primary.Get(ctx, pattern)
	if err != nil {
		c.recordFailure(ctx, "get", err)
		return c.fallback.Get(ctx, pattern)
	}
	c.recordSuccess(ctx)
	return possibilities, ok, nil
}

func (c *FallbackCache) Set(ctx context.Context, pattern string, possibilities []string, ttl time.Duration) error {
	if !c.breaker.Allow() {
		return c.fallback.Set(ctx, pattern, possibilities, ttl)
	}
	if err := c.primary.Set(ctx, pattern, possibilities, ttl); err != nil {
		c.recordFailure(ctx, "set", err)
		return c.fallback.Set(ctx, pattern, possibilities, ttl)
	}
	c.recordSuccess(ctx)
	return nil
}

// Degraded reports whether reads and writes currently go to the fallback.
func (c *FallbackCache) Degraded() bool {
	return c.breaker.IsOpen()
}

func (c *FallbackCache) recordFailure(ctx context.Context, op string, err error) {
	_, change := c.breaker.RecordFailure()
	c.logger.WarnContext(ctx, "guess cache primary failed",
		"op", op,
		"breaker", c.breaker.Name(),
		"error", err,
	)
	if change.Opened {
		c.logger.ErrorContext(ctx, "guess cache degraded to fallback", "breaker", c.breaker.Name())
	}
}

func (c *FallbackCache) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "guess cache primary recovered", "breaker", c.breaker.Name())
	}
}
