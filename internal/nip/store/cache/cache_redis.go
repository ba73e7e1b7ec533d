package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const guessKeyPrefix = "nip:guess:"

// RedisCache shares guess results between replicas.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache wraps an existing client; the caller owns its lifecycle.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached possibilities for pattern.
func (c *RedisCache) Get(ctx context.Context, pattern string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, guessKeyPrefix+pattern).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get guess: %w", err)
	}
	var possibilities []string
	if err := json.Unmarshal(raw, &possibilities); err != nil {
		return nil, false, fmt.Errorf("decode cached guess: %w", err)
	}
	if possibilities == nil {
		possibilities = []string{}
	}
	return possibilities, true, nil
}

// Set stores possibilities with ttl. An empty result is stored as [] so it
// is distinguishable from a miss.
func (c *RedisCache) Set(ctx context.Context, pattern string, possibilities []string, ttl time.Duration) error {
	if possibilities == nil {
		possibilities = []string{}
	}
	raw, err := json.Marshal(possibilities)
	if err != nil {
		return fmt.Errorf("encode guess: %w", err)
	}
	if err := c.client.Set(ctx, guessKeyPrefix+pattern, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set guess: %w", err)
	}
	return nil
}
