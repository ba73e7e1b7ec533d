package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"nipcheck/internal/ratelimit/models"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemoryBucketStore(WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "test:allow:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
	})

	s.Run("requests up to limit allowed", func() {
		var result *models.RateLimitResult
		var err error
		for range testLimit {
			result, err = s.store.Allow(s.ctx, "test:allow:limit", testLimit, testWindow)
		}
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied with retry hint", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "test:allow:over", testLimit, testWindow)
			require.NoError(s.T(), err)
		}
		result, err := s.store.Allow(s.ctx, "test:allow:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(0, result.Remaining)
		s.Equal(60, result.RetryAfter)
	})

	s.Run("keys are independent", func() {
		for range testLimit {
			_, _ = s.store.Allow(s.ctx, "test:allow:a", testLimit, testWindow)
		}
		result, err := s.store.Allow(s.ctx, "test:allow:b", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestWindowSlides() {
	key := "test:slide"
	for range testLimit {
		_, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
		s.Require().NoError(err)
	}

	s.now = s.now.Add(testWindow / 2)
	result, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(30, result.RetryAfter)

	s.now = s.now.Add(testWindow/2 + time.Second)
	result, err = s.store.Allow(s.ctx, key, testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)

	count, err := s.store.GetCurrentCount(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *InMemoryBucketStoreSuite) TestAllowN() {
	result, err := s.store.AllowN(s.ctx, "test:n", 4, testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(testLimit-4, result.Remaining)

	result, err = s.store.AllowN(s.ctx, "test:n", 7, testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Allowed, "cost exceeding remaining budget is denied")

	count, err := s.store.GetCurrentCount(s.ctx, "test:n")
	s.Require().NoError(err)
	s.Equal(4, count, "denied request consumes nothing")
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	for range testLimit {
		_, _ = s.store.Allow(s.ctx, "test:reset", testLimit, testWindow)
	}
	s.Require().NoError(s.store.Reset(s.ctx, "test:reset"))

	count, err := s.store.GetCurrentCount(s.ctx, "test:reset")
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *InMemoryBucketStoreSuite) TestDrainedBucketsAreRemoved() {
	s.Run("sweep drops buckets once their window has passed", func() {
		for _, ip := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
			_, err := s.store.Allow(s.ctx, "ip:guess:"+ip, testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.Equal(3, s.store.size())

		s.now = s.now.Add(testWindow + time.Second)
		_, err := s.store.Allow(s.ctx, "ip:guess:198.51.100.4", testLimit, testWindow)
		s.Require().NoError(err)
		s.Equal(1, s.store.size(), "only the fresh bucket remains")
	})

	s.Run("sweep runs at most once per interval", func() {
		_, err := s.store.Allow(s.ctx, "ip:guess:203.0.113.1", testLimit, time.Second)
		s.Require().NoError(err)
		before := s.store.size()

		s.now = s.now.Add(2 * time.Second)
		_, err = s.store.Allow(s.ctx, "ip:guess:203.0.113.2", testLimit, testWindow)
		s.Require().NoError(err)
		s.Equal(before+1, s.store.size(), "drained bucket kept until the next sweep")

		s.now = s.now.Add(defaultSweepInterval)
		_, err = s.store.Allow(s.ctx, "ip:guess:203.0.113.2", testLimit, testWindow)
		s.Require().NoError(err)
		s.Equal(1, s.store.size())
	})

	s.Run("count lookup removes an empty bucket", func() {
		_, err := s.store.Allow(s.ctx, "ip:guess:192.0.2.50", testLimit, testWindow)
		s.Require().NoError(err)
		s.now = s.now.Add(testWindow + time.Second)

		count, err := s.store.GetCurrentCount(s.ctx, "ip:guess:192.0.2.50")
		s.Require().NoError(err)
		s.Zero(count)
		_, tracked := s.store.buckets["ip:guess:192.0.2.50"]
		s.False(tracked)
	})
}

func (s *InMemoryBucketStoreSuite) TestConcurrentAllow() {
	const goroutines = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "test:concurrent", testLimit, testWindow)
			if err == nil && result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(testLimit, allowed)
}
