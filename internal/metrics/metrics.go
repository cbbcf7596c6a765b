// Package metrics exposes gateway counters in the Prometheus format.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moderation_gateway"

// Metrics holds the collectors recorded by middleware and services
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	rateLimitRejected prometheus.Counter
	authFailures      *prometheus.CounterVec
	moderations       *prometheus.CounterVec
	limiterKeys       prometheus.Gauge
	sweptKeys         prometheus.Counter
}

// New creates a Metrics instance backed by its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		rateLimitRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the rate limiter",
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Authentication and authorization failures by reason",
		}, []string{"reason"}),
		moderations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderations_total",
			Help:      "Moderation calls by outcome (safe, unsafe, error)",
		}, []string{"outcome"}),
		limiterKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limiter_tracked_keys",
			Help:      "Client identities currently tracked by the rate limiter",
		}),
		sweptKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limiter_swept_keys_total",
			Help:      "Idle client identities evicted by the janitor",
		}),
	}

	reg.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.rateLimitRejected,
		m.authFailures,
		m.moderations,
		m.limiterKeys,
		m.sweptKeys,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one completed HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RateLimitRejected counts a throttled request
func (m *Metrics) RateLimitRejected() {
	if m == nil {
		return
	}
	m.rateLimitRejected.Inc()
}

// AuthFailure counts an authentication or authorization failure
func (m *Metrics) AuthFailure(reason string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(reason).Inc()
}

// Moderation counts a moderation outcome
func (m *Metrics) Moderation(outcome string) {
	if m == nil {
		return
	}
	m.moderations.WithLabelValues(outcome).Inc()
}

// LimiterSwept records a janitor pass
func (m *Metrics) LimiterSwept(evicted, remaining int) {
	if m == nil {
		return
	}
	m.sweptKeys.Add(float64(evicted))
	m.limiterKeys.Set(float64(remaining))
}
