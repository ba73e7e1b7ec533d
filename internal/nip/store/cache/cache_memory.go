package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// InMemoryCache holds guess results in process memory, bounded by entry
// count. Writes become visible asynchronously; call Wait to flush them.
type InMemoryCache struct {
	cache *ristretto.Cache[string, []string]
}

// NewInMemoryCache creates a cache holding at most maxEntries results.
func NewInMemoryCache(maxEntries int) (*InMemoryCache, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxEntries)
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []string]{
		NumCounters: int64(maxEntries) * 10,
		MaxCost:     int64(maxEntries),
		BufferItems: 64,
		// Cost is counted in entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create in-memory cache: %w", err)
	}
	return &InMemoryCache{cache: c}, nil
}

// Get returns a copy of the cached possibilities for pattern.
func (c *InMemoryCache) Get(_ context.Context, pattern string) ([]string, bool, error) {
	v, ok := c.cache.Get(pattern)
	if !ok {
		return nil, false, nil
	}
	return append([]string{}, v...), true, nil
}

// Set stores a copy of possibilities. Admission is best effort: under
// pressure ristretto may drop the write, which only costs a future miss.
func (c *InMemoryCache) Set(_ context.Context, pattern string, possibilities []string, ttl time.Duration) error {
	c.cache.SetWithTTL(pattern, append([]string{}, possibilities...), 1, ttl)
	return nil
}

// Wait blocks until pending writes are applied.
func (c *InMemoryCache) Wait() {
	c.cache.Wait()
}

// Close releases the cache's background goroutines.
func (c *InMemoryCache) Close() {
	c.cache.Close()
}
