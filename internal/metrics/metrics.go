package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values shared by the counters below.
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
	OutcomeRejected   = "rejected"
)

var (
	// Catalog client
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aniarc_catalog_requests_total",
			Help: "Total number of catalog API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: ok, not_found, rate_limited, server_error, network, decode
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aniarc_catalog_request_duration_seconds",
			Help:    "Duration of catalog API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CatalogRateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aniarc_catalog_ratelimit_wait_seconds",
			Help:    "Time spent waiting for the outbound catalog rate limiter",
			Buckets: []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// Title lookup client
	LookupRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aniarc_lookup_requests_total",
			Help: "Total number of title lookup requests by outcome",
		},
		[]string{"outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aniarc_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Feed controller
	FeedLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aniarc_feed_loads_total",
			Help: "Total number of feed loads by trigger and outcome",
		},
		[]string{"trigger", "outcome"}, // trigger: initial, mode, search, genres, more, refresh
	)

	FeedItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aniarc_feed_items",
			Help: "Number of records currently accumulated in the feed",
		},
	)

	// User state
	UserStateMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aniarc_userstate_mutations_total",
			Help: "Total number of user state mutations by operation",
		},
		[]string{"op"},
	)

	UserStatePersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aniarc_userstate_persist_errors_total",
			Help: "Total number of failed writes to the user state backend",
		},
	)

	// Backups
	BackupRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aniarc_backup_runs_total",
			Help: "Total number of scheduled user state backups by outcome",
		},
		[]string{"outcome"},
	)

	// HTTP API
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aniarc_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
