// package metrics holds the Prometheus collectors shared by the cache, the external clients and the
// discovery engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CacheLookups counts attribute resolutions by the tier that answered (local, store, origin).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onehit_cache_lookups_total",
			Help: "Attribute resolutions by answering cache tier",
		},
		[]string{"attr", "tier"},
	)

	CacheWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onehit_cache_write_failures_total",
			Help: "Write-through failures to the persistent store",
		},
		[]string{"attr"},
	)

	ExternalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onehit_external_requests_total",
			Help: "Calls to external services by outcome (success, failure, rejected)",
		},
		[]string{"service", "method", "outcome"},
	)

	ExternalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onehit_external_request_duration_seconds",
			Help:    "Duration of calls to external services",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "onehit_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"service"},
	)

	DiscoveryHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onehit_discovery_hits_total",
			Help: "Hits delivered to discovery consumers",
		},
	)

	DiscoveryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onehit_discoveries_total",
			Help: "Finished discoveries by outcome (exhausted, gave_up, cancelled)",
		},
		[]string{"outcome"},
	)

	ActiveDiscoveries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "onehit_active_discoveries",
			Help: "Discoveries currently streaming",
		},
	)
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
