// Package metrics provides Prometheus metrics for MarketWatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketwatch"

// Evaluation metrics
var (
	// EvaluationPasses counts evaluator passes over the market snapshot.
	EvaluationPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "evaluation_passes_total",
			Help:      "Total number of alert evaluation passes",
		},
	)

	// AlertTriggers counts triggered alerts by type and priority.
	AlertTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "triggers_total",
			Help:      "Total number of triggered alerts",
		},
		[]string{"type", "priority"},
	)
)

// Notification metrics
var (
	// NotificationsTotal counts notification deliveries by channel and outcome.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "deliveries_total",
			Help:      "Total number of notification deliveries",
		},
		[]string{"channel", "status"},
	)

	// NotificationsRateLimited counts notifications dropped by the rate limiter.
	NotificationsRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "rate_limited_total",
			Help:      "Total number of notifications dropped due to rate limiting",
		},
	)
)

// Market polling metrics
var (
	// PollsTotal counts market refreshes by outcome.
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "polls_total",
			Help:      "Total number of market data polls",
		},
		[]string{"status"},
	)

	// PollDuration observes market fetch latency.
	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "poll_duration_seconds",
			Help:      "Market data fetch duration",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// SnapshotsFetched observes how many trade rows each poll yields.
	SnapshotsFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "snapshots_fetched",
			Help:      "Trade snapshots returned per poll",
			Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000},
		},
	)
)

// HTTP API metrics
var (
	// HTTPRequestsTotal counts API requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent API requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)
)
