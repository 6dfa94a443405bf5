// Package metrics defines and registers all custom Prometheus metrics for the
// Quiet Summit API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// init through promauto; /metrics exposes them via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quietsummit"

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts completed requests.
// Labels:
//   - method: HTTP method
//   - route: the matched route template (e.g. "/api/users/:email"), never the raw path
//   - status: final status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests completed, by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures time from pipeline entry to the first response commit.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration from request entry until the response was committed.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthLoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid", "unknown_user" or "bad_password"
var AuthLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
