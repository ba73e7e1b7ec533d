package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nipcheck/internal/ratelimit/models"
)

// BucketStore manages sliding window rate limit counters.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
}

// Limit is the request budget of one endpoint class.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Service applies per-class limits to client IPs.
type Service struct {
	buckets BucketStore
	limits  map[models.EndpointClass]Limit
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLimit sets the budget for one endpoint class.
func WithLimit(class models.EndpointClass, limit Limit) Option {
	return func(s *Service) {
		s.limits[class] = limit
	}
}

const keyPrefixIP = "ip"

// New constructs a Service. Classes without a configured limit are not limited.
func New(buckets BucketStore, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, fmt.Errorf("buckets store is required")
	}
	s := &Service{
		buckets: buckets,
		limits:  make(map[models.EndpointClass]Limit),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for class, limit := range s.limits {
		if limit.RequestsPerWindow <= 0 || limit.Window <= 0 {
			return nil, fmt.Errorf("invalid limit for class %q", class)
		}
	}
	return s, nil
}

// CheckIP consumes one request from ip's budget for class.
func (s *Service) CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error) {
	limit, ok := s.limits[class]
	if !ok {
		return &models.RateLimitResult{Allowed: true}, nil
	}
	result, err := s.buckets.Allow(ctx, ipKey(ip, class), limit.RequestsPerWindow, limit.Window)
	if err != nil {
		return nil, fmt.Errorf("check ip rate limit: %w", err)
	}
	if !result.Allowed {
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"class", class,
			"retry_after", result.RetryAfter,
		)
	}
	return result, nil
}

// ResetIP clears ip's budget for class.
func (s *Service) ResetIP(ctx context.Context, ip string, class models.EndpointClass) error {
	return s.buckets.Reset(ctx, ipKey(ip, class))
}

func ipKey(ip string, class models.EndpointClass) string {
	return keyPrefixIP + ":" + string(class) + ":" + ip
}
