package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nipcheck/pkg/platform/circuit"
)

type fakeBackend struct {
	mu      sync.Mutex
	entries map[string][]string
	err     error
	calls   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{entries: map[string][]string{}}
}

func (f *fakeBackend) Get(_ context.Context, pattern string) ([]string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, false, f.err
	}
	v, ok := f.entries[pattern]
	return v, ok, nil
}

func (f *fakeBackend) Set(_ context.Context, pattern string, possibilities []string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.entries[pattern] = possibilities
	return nil
}

func newTestFallbackCache(primary, fallback Backend, now *time.Time) *FallbackCache {
	breaker := circuit.New("guess-cache",
		circuit.WithFailureThreshold(2),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Second),
		circuit.WithClock(func() time.Time { return *now }),
	)
	return NewFallbackCache(primary, fallback, breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFallbackCache(t *testing.T) {
	ctx := context.Background()
	errDown := errors.New("connection refused")

	t.Run("healthy primary serves reads and writes", func(t *testing.T) {
		now := time.Now()
		primary, fallback := newFakeBackend(), newFakeBackend()
		c := newTestFallbackCache(primary, fallback, &now)

		require.NoError(t, c.Set(ctx, "123456321x", []string{"1234563218"}, time.Minute))
		got, ok, err := c.Get(ctx, "123456321x")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"1234563218"}, got)
		assert.Zero(t, fallback.calls)
		assert.False(t, c.Degraded())
	})

	t.Run("primary error falls back without surfacing", func(t *testing.T) {
		now := time.Now()
		primary, fallback := newFakeBackend(), newFakeBackend()
		primary.err = errDown
		c := newTestFallbackCache(primary, fallback, &now)

		require.NoError(t, c.Set(ctx, "123456321x", []string{"1234563218"}, time.Minute))
		got, ok, err := c.Get(ctx, "123456321x")
		require.NoError(t, err)
		assert.True(t, ok, "write landed in fallback")
		assert.Equal(t, []string{"1234563218"}, got)
		assert.True(t, c.Degraded())
	})

	t.Run("open breaker skips primary until cooldown probe succeeds", func(t *testing.T) {
		now := time.Now()
		primary, fallback := newFakeBackend(), newFakeBackend()
		primary.err = errDown
		c := newTestFallbackCache(primary, fallback, &now)

		_, _, _ = c.Get(ctx, "123456321x")
		_, _, _ = c.Get(ctx, "123456321x")
		require.True(t, c.Degraded())
		callsWhenOpened := primary.calls

		_, _, _ = c.Get(ctx, "123456321x")
		assert.Equal(t, callsWhenOpened, primary.calls, "primary not called while open")

		primary.err = nil
		now = now.Add(time.Second)
		_, _, err := c.Get(ctx, "123456321x")
		require.NoError(t, err)
		assert.Equal(t, callsWhenOpened+1, primary.calls)
		assert.False(t, c.Degraded())
	})
}
