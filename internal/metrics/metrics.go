// Package metrics collects and exposes Prometheus metrics for the session
// and connect flows.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth and connect outcomes.
type Collector struct {
	registry *prometheus.Registry

	authOps        *prometheus.CounterVec
	connectOutcome *prometheus.CounterVec
	graphLatency   prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics on a fresh
// registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		authOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizpilot_auth_operations_total",
			Help: "Auth service operations by operation and result",
		}, []string{"operation", "result"}),
		connectOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizpilot_connect_flows_total",
			Help: "Completed connect flows by terminal state and error code",
		}, []string{"state", "code"}),
		graphLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bizpilot_graph_request_seconds",
			Help:    "Latency of third-party graph API requests",
			Buckets: prometheus.DefBuckets,
		}),
	}

	c.registry.MustRegister(c.authOps, c.connectOutcome, c.graphLatency)
	return c
}

func (c *Collector) RecordAuthOp(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.authOps.WithLabelValues(operation, result).Inc()
}

func (c *Collector) RecordConnectOutcome(state, code string) {
	c.connectOutcome.WithLabelValues(state, code).Inc()
}

func (c *Collector) RecordGraphLatency(d time.Duration) {
	c.graphLatency.Observe(d.Seconds())
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
