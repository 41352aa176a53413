// Package metrics provides Prometheus instrumentation for the ScamShield backend.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scamshield",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ReputationLookupsTotal counts reputation lookups by result (known/unknown).
	ReputationLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "reputation_lookups_total",
			Help:      "Total reputation lookups by result.",
		},
		[]string{"result"},
	)

	// ReputationReportsTotal counts community reports by category.
	ReputationReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "reputation_reports_total",
			Help:      "Total community reports by category.",
		},
		[]string{"category"},
	)

	// ClassificationsTotal counts message classifications by path and verdict.
	// path is "model" when the generative call succeeded, "fallback" otherwise.
	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "classifications_total",
			Help:      "Total message classifications by path and verdict.",
		},
		[]string{"path", "verdict"},
	)

	// QuotaDeniedTotal counts free-tier quota denials by feature.
	QuotaDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "quota_denied_total",
			Help:      "Total quota denials by feature.",
		},
		[]string{"feature"},
	)

	// AutoHangupsTotal counts calls terminated by the auto-hangup policy.
	AutoHangupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "auto_hangups_total",
			Help:      "Total calls terminated automatically for high risk.",
		},
	)

	// ActiveCallSessions tracks whether a call overlay is currently active.
	ActiveCallSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scamshield",
			Name:      "active_call_sessions",
			Help:      "Number of currently active call sessions.",
		},
	)

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scamshield",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// DeepfakeScansTotal counts voiceprint scans by outcome.
	DeepfakeScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scamshield",
			Name:      "deepfake_scans_total",
			Help:      "Total deepfake scans by verdict.",
		},
		[]string{"verdict"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ReputationLookupsTotal,
		ReputationReportsTotal,
		ClassificationsTotal,
		QuotaDeniedTotal,
		AutoHangupsTotal,
		ActiveCallSessions,
		ActiveWebSocketClients,
		DeepfakeScansTotal,
	)
}

// Middleware instruments HTTP requests with count and latency.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := statusLabel(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func statusLabel(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
