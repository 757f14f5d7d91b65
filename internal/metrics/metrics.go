// Package metrics registers the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes handler latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "film_catalog_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// RankingDuration observes ranking and recommendation operations end to
	// end, including hydration.
	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "film_catalog_ranking_duration_seconds",
			Help:    "Duration of ranking and recommendation operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// DegradedReads counts reads that returned an empty result instead of
	// a store error.
	DegradedReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "film_catalog_degraded_reads_total",
			Help: "Reads answered with an empty result because the store failed",
		},
		[]string{"operation"},
	)

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "film_catalog_cache_hits_total",
		Help: "Response cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "film_catalog_cache_misses_total",
		Help: "Response cache misses",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "film_catalog_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	// FeedEventsPublished counts feed events by outcome: ok, failed or
	// rejected (breaker open).
	FeedEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "film_catalog_feed_events_published_total",
			Help: "Feed events handed to the publisher by outcome",
		},
		[]string{"outcome"},
	)

	FeedEventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "film_catalog_feed_events_consumed_total",
			Help: "Feed events read from the broker by outcome",
		},
		[]string{"outcome"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "film_catalog_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// ObserveRanking records the duration of a ranking operation started at
// start.
func ObserveRanking(operation string, start time.Time) {
	RankingDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
