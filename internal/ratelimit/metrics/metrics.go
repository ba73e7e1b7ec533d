package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateLimitRejections *prometheus.CounterVec
	RateLimitErrors     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RateLimitRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nipcheck_ratelimit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		}, []string{"class"}),
		RateLimitErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "nipcheck_ratelimit_errors_total",
			Help: "Total number of rate limit checks that failed open",
		}),
	}
}

func (m *Metrics) IncrementRejections(class string) {
	m.RateLimitRejections.WithLabelValues(class).Inc()
}

func (m *Metrics) IncrementErrors() {
	m.RateLimitErrors.Inc()
}
