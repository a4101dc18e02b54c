// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the testapp server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets for API request latencies, from 1ms
// to 5s. Password hashing dominates the upper range.
var APIBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testapp_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "testapp_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method"},
	)

	// InflightRequests tracks the number of requests currently being served.
	InflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "testapp_requests_inflight",
			Help: "In-flight requests",
		},
	)

	// AccessDecisionsTotal counts access gate verdicts. The reason label
	// is internal only and never reaches the client.
	AccessDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testapp_access_decisions_total",
			Help: "Access gate decisions",
		},
		[]string{"verdict", "reason"},
	)

	// AuthOperationsTotal counts register, login, and logout outcomes.
	AuthOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testapp_auth_operations_total",
			Help: "Authentication operations",
		},
		[]string{"operation", "outcome"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "testapp_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		InflightRequests,
		AccessDecisionsTotal,
		AuthOperationsTotal,
		RateLimitRejectedTotal,
	)
}
