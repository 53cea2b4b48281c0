package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counts completed operation invocations by outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretsmanager_operations_total",
			Help: "Total number of Secrets Manager operations invoked (by operation and result).",
		},
		[]string{"operation", "result"}, // result = "ok" | "error"
	)

	// Counts invocations rejected before sending because parameters were missing.
	OperationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretsmanager_operations_rejected_total",
			Help: "Operations rejected by parameter validation; nothing was sent.",
		},
		[]string{"operation"},
	)

	// Measures end-to-end operation latency including retries.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "secretsmanager_operation_duration_seconds",
			Help:    "Duration of Secrets Manager operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"operation"},
	)

	// Tracks every HTTP attempt made by the executor.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretsmanager_http_requests_total",
			Help: "Total number of HTTP attempts (by operation, method and status).",
		},
		[]string{"operation", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "secretsmanager_http_request_duration_seconds",
			Help:    "Duration of individual HTTP attempts in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "method"},
	)

	HTTPRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretsmanager_http_retries_total",
			Help: "Retries scheduled by the executor (by reason).",
		},
		[]string{"operation", "reason"}, // reason = "network" | "status"
	)

	// Tracks IAM token cache hits and misses.
	TokenCacheAccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretsmanager_token_cache_access_total",
			Help: "Number of cache hits/misses when resolving IAM tokens.",
		},
		[]string{"store", "result"}, // hit | miss
	)

	// Tracks cache hits and misses for resolved API keys.
	CredentialCacheAccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretsmanager_credential_cache_access_total",
			Help: "Number of cache hits/misses when resolving API keys.",
		},
		[]string{"result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretsmanager_events_published_total",
			Help: "Lifecycle events published (by sink and result).",
		},
		[]string{"sink", "result"},
	)

	EventPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "secretsmanager_event_publish_duration_seconds",
			Help:    "Latency of publishing a lifecycle event.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	AuditWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretsmanager_audit_writes_total",
			Help: "Audit journal inserts (by result).",
		},
		[]string{"result"},
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretsmanager_errors_total",
			Help: "Count of errors by component.",
		},
		[]string{"component", "reason"},
	)

	// Gauges the last successful token refresh (seconds since epoch).
	LastTokenRefresh = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "secretsmanager_last_token_refresh_timestamp",
			Help: "Timestamp (unix seconds) of the last successful IAM token refresh.",
		},
	)
)

// ObserveDuration records the time since start on a histogram vector.
func ObserveDuration(h *prometheus.HistogramVec, start time.Time, labels ...string) {
	h.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
}

func IncHTTPRequest(operation, method, status string) {
	HTTPRequestsTotal.WithLabelValues(operation, method, status).Inc()
}

func IncRetry(operation, reason string) {
	HTTPRetries.WithLabelValues(operation, reason).Inc()
}

func IncTokenCache(store, result string) {
	TokenCacheAccess.WithLabelValues(store, result).Inc()
}

func IncCredentialCache(result string) {
	CredentialCacheAccess.WithLabelValues(result).Inc()
}

func IncEvent(sink, result string) {
	EventsPublished.WithLabelValues(sink, result).Inc()
}

func IncAuditWrite(result string) {
	AuditWrites.WithLabelValues(result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}

func SetLastTokenRefresh(t time.Time) {
	LastTokenRefresh.Set(float64(t.Unix()))
}
