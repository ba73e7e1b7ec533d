package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultPort = "3432"

// Server captures HTTP server level configuration.
type Server struct {
	Addr      string
	LogFormat string
	LogLevel  string
	// TrustedProxies lists IPs/CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string

	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// RedisConfig configures the optional Redis guess cache. An empty URL keeps
// the cache in process memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// CacheConfig bounds memoised guess results.
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// RateLimitConfig limits guess requests per client IP.
type RateLimitConfig struct {
	Disabled bool
	Limit    int
	Window   time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed numeric or duration values are reported rather than silently
// replaced by defaults.
func FromEnv() (Server, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Server, error) {
	p := parser{lookup: lookup}

	addr := p.str("NIPCHECK_ADDR", "")
	if addr == "" {
		addr = ":" + p.str("HTTP_PORT", defaultPort)
	}

	cfg := Server{
		Addr:           addr,
		LogFormat:      p.str("LOG_FORMAT", "json"),
		LogLevel:       p.str("LOG_LEVEL", "info"),
		TrustedProxies: p.list("TRUSTED_PROXIES"),
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Cache: CacheConfig{
			TTL:     p.duration("GUESS_CACHE_TTL", 10*time.Minute),
			MaxSize: p.int("GUESS_CACHE_SIZE", 1024),
		},
		RateLimit: RateLimitConfig{
			Disabled: p.bool("DISABLE_RATE_LIMIT", false),
			Limit:    p.int("GUESS_RATE_LIMIT", 60),
			Window:   p.duration("GUESS_RATE_WINDOW", time.Minute),
		},
	}
	if p.err != nil {
		return Server{}, p.err
	}
	if cfg.RateLimit.Limit <= 0 && !cfg.RateLimit.Disabled {
		return Server{}, fmt.Errorf("GUESS_RATE_LIMIT must be positive, got %d", cfg.RateLimit.Limit)
	}
	return cfg, nil
}

// parser records the first malformed variable and keeps returning defaults
// afterwards so FromEnv can report a single error.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) str(key, def string) string {
	if v, ok := p.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (p *parser) list(key string) []string {
	var out []string
	for _, v := range strings.Split(p.str(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (p *parser) int(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
}
