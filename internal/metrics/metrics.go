// Package metrics owns the process-wide Prometheus registry. Collectors are
// registered once at construction and only read by the /metrics handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mikeolab/devops-real-app/internal/domain"
)

// Metrics bundles the registry and every collector the service updates.
type Metrics struct {
	registry *prometheus.Registry
	backend  string

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	leadsCreated    *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	rateLimited     prometheus.Counter
}

// New registers all collectors on a fresh registry. backend labels lead counters.
func New(backend string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		backend:  backend,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests processed, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		leadsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Leads persisted, by service type and storage backend.",
		}, []string{"service", "backend"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_validation_failures_total",
			Help: "Lead submissions rejected by validation, by reason.",
		}, []string{"reason"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the submission rate limiter.",
		}),
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.requests,
		m.requestDuration,
		m.leadsCreated,
		m.rejections,
		m.rateLimited,
	)
	for _, svc := range domain.ServiceTypes() {
		m.leadsCreated.WithLabelValues(string(svc), backend)
	}
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RateLimited counts a rejected submission.
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// LeadCreated counts a persisted lead.
func (m *Metrics) LeadCreated(lead domain.Lead) {
	m.leadsCreated.WithLabelValues(string(lead.Service), m.backend).Inc()
}

// LeadRejected counts a validation failure.
func (m *Metrics) LeadRejected(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}
