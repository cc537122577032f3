// Package metrics exposes Prometheus collectors for the answer pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline outcomes.
const (
	OutcomeAnswered   = "answered"
	OutcomeOutOfScope = "out_of_scope"
	OutcomeAutoWeb    = "auto_web"
	OutcomeError      = "error"
)

var (
	once sync.Once

	routedQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "degreefyd_routed_queries_total",
		Help: "Queries routed per category",
	}, []string{"category"})

	verdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "degreefyd_relevance_verdicts_total",
		Help: "Relevance verdicts per retrieval attempt",
	}, []string{"attempt", "verdict"})

	outcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "degreefyd_pipeline_outcomes_total",
		Help: "Pipeline run outcomes",
	}, []string{"outcome"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "degreefyd_cache_lookups_total",
		Help: "Result cache lookups by result (hit/miss)",
	}, []string{"result"})

	retrievalLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "degreefyd_retrieval_latency_ms",
		Help:    "Latency of raw document retrieval in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
	}, []string{"category"})

	retrievalResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "degreefyd_retrieval_results",
		Help:    "Number of documents returned by raw retrieval",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
	}, []string{"category"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(routedQueries, verdicts, outcomes, cacheLookups, retrievalLatency, retrievalResults)
	})
}

// IncRoute counts a routed query.
func IncRoute(category string) {
	ensureRegistered()
	routedQueries.WithLabelValues(category).Inc()
}

// IncVerdict counts a relevance verdict for attempt "1" or "2".
func IncVerdict(attempt, verdict string) {
	ensureRegistered()
	verdicts.WithLabelValues(attempt, verdict).Inc()
}

// IncOutcome counts a pipeline outcome.
func IncOutcome(outcome string) {
	ensureRegistered()
	outcomes.WithLabelValues(outcome).Inc()
}

// IncCache counts a cache lookup.
func IncCache(hit bool) {
	ensureRegistered()
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// ObserveRetrieval records latency and result size of a raw retrieval.
func ObserveRetrieval(category string, start time.Time, results int) {
	ensureRegistered()
	retrievalLatency.WithLabelValues(category).Observe(float64(time.Since(start).Milliseconds()))
	retrievalResults.WithLabelValues(category).Observe(float64(results))
}

// Register makes sure the collectors are registered with the default
// registry, so /metrics lists them before the first query.
func Register() {
	ensureRegistered()
}
