package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Recommender Prometheus metrics.
var (
	RecommenderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "recommender_requests_total",
			Help:      "Total number of reasoning service calls",
		},
		[]string{"model", "status"},
	)

	RecommenderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scout",
			Name:      "recommender_request_duration_seconds",
			Help:      "Reasoning service call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"model"},
	)

	RecommenderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "recommender_tokens_total",
			Help:      "Total tokens consumed by the reasoning service",
		},
		[]string{"model", "type"},
	)

	RecommenderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "recommender_errors_total",
			Help:      "Total reasoning service errors",
		},
		[]string{"model", "error_type"},
	)

	RecommenderRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "recommender_retries_total",
			Help:      "Total retried reasoning service calls",
		},
		[]string{"model"},
	)

	RecommenderBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "scout",
			Name:      "recommender_budget_tokens_remaining",
			Help:      "Remaining token budget",
		},
		[]string{"period"},
	)
)

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "search_requests_total",
			Help:      "Search requests by terminal outcome",
		},
		[]string{"outcome"},
	)

	GuardrailDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "guardrail_dropped_total",
			Help:      "Candidates discarded because their id is not in the catalog",
		},
	)

	GuardrailFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scout",
			Name:      "guardrail_fallback_total",
			Help:      "Responses served from the first-item fallback",
		},
	)
)

var registerOnce sync.Once

// Register registers every scout collector with the default registry. Call from main.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			RecommenderRequestsTotal,
			RecommenderRequestDuration,
			RecommenderTokensTotal,
			RecommenderErrorsTotal,
			RecommenderRetriesTotal,
			RecommenderBudgetTokensRemaining,
			SearchRequestsTotal,
			GuardrailDroppedTotal,
			GuardrailFallbackTotal,
		)
	})
}
