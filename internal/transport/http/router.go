package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	nipHandler "nipcheck/internal/nip/handler"
	"nipcheck/internal/platform/metrics"
	"nipcheck/internal/platform/middleware"
	dErrors "nipcheck/pkg/domain-errors"
	"nipcheck/pkg/platform/httputil"
	"nipcheck/pkg/platform/middleware/metadata"
	"nipcheck/pkg/platform/middleware/requesttime"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps collects what the router needs. Gatherer, HTTPMetrics and ClientIP
// may be nil; a nil ClientIP trusts no forwarding proxy.
type Deps struct {
	NIP         *nipHandler.Handler
	ClientIP    *metadata.Resolver
	GuessGuard  func(http.Handler) http.Handler
	Logger      *slog.Logger
	HTTPMetrics *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Health      []HealthChecker
}

// NewRouter wires the middleware stack and every public endpoint.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	if d.ClientIP != nil {
		r.Use(d.ClientIP.Middleware)
	} else {
		r.Use(metadata.ClientMetadata)
	}
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Middleware)
	}
	r.Use(middleware.AccessLog(d.Logger))

	var guards []func(http.Handler) http.Handler
	if d.GuessGuard != nil {
		guards = append(guards, d.GuessGuard)
	}
	d.NIP.Register(r, guards...)

	r.Get("/healthz", healthHandler(d.Health, d.Logger))
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	return r
}

func healthHandler(checks []HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for _, c := range checks {
			if err := c.Health(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "error", err)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "dependency unavailable"))
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
