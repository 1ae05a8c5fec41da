// Package metrics holds Prometheus instruments shared across the backend.
// All collectors are registered with the global registry, so mounting
// promhttp.Handler() on /metrics is enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ACLDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acl_decisions_total",
			Help: "ACL decisions by result (allow, deny, bypass, error).",
		}, []string{"result"})

	GatewayOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_operations_total",
			Help: "Generic table gateway operations by table, op, and outcome.",
		}, []string{"table", "op", "outcome"})

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern, and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"})

	SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Cumulative number of successful logins.",
		})
)

func init() {
	prometheus.MustRegister(
		ACLDecisions,
		GatewayOperations,
		HTTPDuration,
		SessionsCreated,
	)
}
