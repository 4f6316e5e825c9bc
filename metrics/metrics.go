// Package metrics defines the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "selfgraph_http_requests_total",
		Help: "Dashboard HTTP requests by route and status",
	}, []string{"route", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "selfgraph_http_request_duration_seconds",
		Help:    "Dashboard HTTP request duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "selfgraph_upstream_requests_total",
		Help: "Upstream fetches by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	UpstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "selfgraph_upstream_request_duration_seconds",
		Help:    "Upstream fetch duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	BreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "selfgraph_upstream_breaker_state",
		Help: "Upstream circuit breaker state (0 closed, 1 half-open, 2 open)",
	})

	DuplicateKeys = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "selfgraph_duplicate_bucket_keys_total",
		Help: "Duplicate bucket keys seen in upstream responses",
	}, []string{"endpoint"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, UpstreamRequests, UpstreamDuration, BreakerState, DuplicateKeys)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, method string, status int, start time.Time) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

// ObserveUpstream records one upstream fetch. outcome is "ok" or "error".
func ObserveUpstream(endpoint, outcome string, start time.Time) {
	UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
