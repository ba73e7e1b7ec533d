package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"nipcheck/internal/nip/metrics"
	"nipcheck/pkg/domain"
	dErrors "nipcheck/pkg/domain-errors"
	"nipcheck/pkg/requestcontext"
)

const tracerName = "nipcheck/internal/nip/service"

// DefaultCacheTTL is used when no WithCacheTTL option is given.
const DefaultCacheTTL = 10 * time.Minute

// Cache memoises guess results by pattern. Implementations must be safe for
// concurrent use. A miss is reported as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, pattern string) ([]string, bool, error)
	Set(ctx context.Context, pattern string, possibilities []string, ttl time.Duration) error
}

// ValidateResult is the outcome of Validate.
type ValidateResult struct {
	IsValid bool
}

// GuessResult is the outcome of Guess.
type GuessResult struct {
	Possibilities []string
	// Cached is true when the result was served from the cache.
	Cached bool
}

// Service exposes NIP validation and wildcard guessing to transport adapters.
type Service struct {
	cache    Cache
	cacheTTL time.Duration
	group    singleflight.Group
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// New constructs a Service backed by cache.
func New(cache Cache, opts ...Option) (*Service, error) {
	if cache == nil {
		return nil, fmt.Errorf("guess cache is required")
	}
	s := &Service{
		cache:    cache,
		cacheTTL: DefaultCacheTTL,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cacheTTL <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive")
	}
	return s, nil
}

// Validate reports whether identifier is a valid NIP. It never fails: any
// malformed input is simply invalid.
func (s *Service) Validate(ctx context.Context, identifier string) (*ValidateResult, error) {
	_, span := s.tracer.Start(ctx, "nip.Validate",
		trace.WithAttributes(attribute.Int("nip.input_length", len(identifier))))
	defer span.End()

	valid := domain.IsValidNIP(identifier)
	span.SetAttributes(attribute.Bool("nip.valid", valid))
	if s.metrics != nil {
		s.metrics.ObserveValidation(valid)
	}
	return &ValidateResult{IsValid: valid}, nil
}

// Guess returns every valid completion of pattern.
//
// Input errors (CodeInputLength, CodeMaxPlaceholders) are returned before the
// cache is consulted and are never cached. Cache failures are logged and
// bypassed; the computed result is authoritative.
func (s *Service) Guess(ctx context.Context, pattern string) (*GuessResult, error) {
	ctx, span := s.tracer.Start(ctx, "nip.Guess",
		trace.WithAttributes(
			attribute.Int("nip.input_length", len(pattern)),
			attribute.Int("nip.wildcards", domain.CountWildcards(pattern)),
		))
	defer span.End()

	if err := domain.ValidatePattern(pattern); err != nil {
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.observeGuess(string(dErrors.CodeOf(err)))
		return nil, err
	}

	if cached, ok := s.lookup(ctx, pattern); ok {
		span.SetAttributes(attribute.Bool("nip.cache_hit", true))
		s.observeGuess(outcome(cached))
		return &GuessResult{Possibilities: cached, Cached: true}, nil
	}

	v, err, shared := s.group.Do(pattern, func() (any, error) {
		res, err := domain.GuessWithStats(pattern)
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.ObserveCandidates(res.CandidatesTested)
		}
		s.store(ctx, pattern, res.Possibilities)
		return res.Possibilities, nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.observeGuess(string(dErrors.CodeOf(err)))
		return nil, err
	}

	possibilities := v.([]string)
	if shared {
		// Callers of a shared flight must not alias one backing array.
		possibilities = append([]string{}, possibilities...)
	}
	span.SetAttributes(attribute.Int("nip.possibilities", len(possibilities)))
	s.observeGuess(outcome(possibilities))
	return &GuessResult{Possibilities: possibilities}, nil
}

func (s *Service) lookup(ctx context.Context, pattern string) ([]string, bool) {
	cached, ok, err := s.cache.Get(ctx, pattern)
	if err != nil {
		s.logger.WarnContext(ctx, "guess cache read failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.IncrementCacheErrors("get")
		}
		return nil, false
	}
	if s.metrics != nil {
		s.metrics.ObserveCacheLookup(ok)
	}
	if !ok {
		return nil, false
	}
	if cached == nil {
		cached = []string{}
	}
	return cached, true
}

func (s *Service) store(ctx context.Context, pattern string, possibilities []string) {
	if err := s.cache.Set(ctx, pattern, possibilities, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "guess cache write failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.IncrementCacheErrors("set")
		}
	}
}

func (s *Service) observeGuess(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveGuess(outcome)
	}
}

func outcome(possibilities []string) string {
	if len(possibilities) == 0 {
		return "empty"
	}
	return "found"
}
