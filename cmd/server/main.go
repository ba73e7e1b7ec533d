package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	nipHandler "nipcheck/internal/nip/handler"
	nipMetrics "nipcheck/internal/nip/metrics"
	nipService "nipcheck/internal/nip/service"
	"nipcheck/internal/nip/store/cache"
	"nipcheck/internal/platform/config"
	"nipcheck/internal/platform/httpserver"
	"nipcheck/internal/platform/logger"
	"nipcheck/internal/platform/metrics"
	"nipcheck/internal/platform/redis"
	rlMetrics "nipcheck/internal/ratelimit/metrics"
	rlMiddleware "nipcheck/internal/ratelimit/middleware"
	rlModels "nipcheck/internal/ratelimit/models"
	rlService "nipcheck/internal/ratelimit/service"
	"nipcheck/internal/ratelimit/store/bucket"
	httptransport "nipcheck/internal/transport/http"
	"nipcheck/pkg/platform/circuit"
	"nipcheck/pkg/platform/middleware/metadata"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	guessCache, health, closeCache, err := buildCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	svc, err := nipService.New(guessCache,
		nipService.WithLogger(log),
		nipService.WithMetrics(nipMetrics.New(reg)),
		nipService.WithCacheTTL(cfg.Cache.TTL),
	)
	if err != nil {
		return fmt.Errorf("init nip service: %w", err)
	}

	limiter, err := rlService.New(bucket.NewInMemoryBucketStore(),
		rlService.WithLogger(log),
		rlService.WithLimit(rlModels.ClassGuess, rlService.Limit{
			RequestsPerWindow: cfg.RateLimit.Limit,
			Window:            cfg.RateLimit.Window,
		}),
	)
	if err != nil {
		return fmt.Errorf("init rate limiter: %w", err)
	}
	rl := rlMiddleware.New(limiter, log,
		rlMiddleware.WithMetrics(rlMetrics.New(reg)),
		rlMiddleware.WithDisabled(cfg.RateLimit.Disabled),
	)

	clientIP, err := metadata.NewResolver(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse TRUSTED_PROXIES: %w", err)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		NIP:         nipHandler.New(svc, log),
		ClientIP:    clientIP,
		GuessGuard:  rl.RateLimit(rlModels.ClassGuess),
		Logger:      log,
		HTTPMetrics: metrics.New(reg),
		Gatherer:    reg,
		Health:      health,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("started", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// buildCache selects Redis when REDIS_URL is set and the in-memory cache
// otherwise. With Redis, a breaker-guarded in-memory cache takes over while
// Redis is failing.
func buildCache(ctx context.Context, cfg config.Server, log *slog.Logger) (nipService.Cache, []httptransport.HealthChecker, func(), error) {
	mem, err := cache.NewInMemoryCache(cfg.Cache.MaxSize)
	if err != nil {
		return nil, nil, nil, err
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		mem.Close()
		return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		log.Info("guess cache in memory", "max_entries", cfg.Cache.MaxSize)
		return mem, nil, mem.Close, nil
	}

	log.Info("guess cache backed by redis", "fallback_max_entries", cfg.Cache.MaxSize)
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn("close redis", "error", err)
		}
		mem.Close()
	}
	guarded := cache.NewFallbackCache(cache.NewRedisCache(client.Client), mem, circuit.New("redis-guess-cache"), log)
	return guarded, []httptransport.HealthChecker{client}, closeFn, nil
}
