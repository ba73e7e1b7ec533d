package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for NIP validation and guessing.
type Metrics struct {
	Validations      *prometheus.CounterVec
	Guesses          *prometheus.CounterVec
	CandidatesTested prometheus.Histogram
	CacheLookups     *prometheus.CounterVec
	CacheErrors      *prometheus.CounterVec
}

// New creates and registers NIP metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nipcheck_validations_total",
			Help: "Total number of NIP validations by result",
		}, []string{"result"}),
		Guesses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nipcheck_guesses_total",
			Help: "Total number of guess requests by outcome (found, empty or error code)",
		}, []string{"outcome"}),
		CandidatesTested: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nipcheck_guess_candidates_tested",
			Help:    "Number of candidate identifiers checked per uncached guess",
			Buckets: []float64{1, 10, 100, 1000},
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nipcheck_guess_cache_lookups_total",
			Help: "Guess cache lookups by result (hit or miss)",
		}, []string{"result"}),
		CacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nipcheck_guess_cache_errors_total",
			Help: "Guess cache failures by operation",
		}, []string{"op"}),
	}
}

func (m *Metrics) ObserveValidation(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.Validations.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveGuess(outcome string) {
	m.Guesses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCandidates(n int) {
	m.CandidatesTested.Observe(float64(n))
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementCacheErrors(op string) {
	m.CacheErrors.WithLabelValues(op).Inc()
}
