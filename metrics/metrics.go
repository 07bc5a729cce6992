// Package metrics defines the Prometheus metrics of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
// Methods are safe to call on a nil *Metrics.
type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	PoliciesAssembled prometheus.Counter
	GridsAssembled    prometheus.Counter
	EmailChanges      *prometheus.CounterVec
	ReportsQueued     *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cims_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cims_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		PoliciesAssembled: f.NewCounter(prometheus.CounterOpts{
			Name: "cims_policies_assembled_total",
			Help: "Total number of policy detail views assembled",
		}),
		GridsAssembled: f.NewCounter(prometheus.CounterOpts{
			Name: "cims_grids_assembled_total",
			Help: "Total number of grids across assembled policy views",
		}),
		EmailChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cims_producer_email_changes_total",
			Help: "Producer e-mail rows written by operation",
		}, []string{"op"}),
		ReportsQueued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cims_reports_queued_total",
			Help: "Report requests forwarded to the report service by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordPolicy records an assembled policy with its grid count.
func (m *Metrics) RecordPolicy(grids int) {
	if m == nil {
		return
	}
	m.PoliciesAssembled.Inc()
	m.GridsAssembled.Add(float64(grids))
}

// RecordEmailChanges records a committed e-mail change set.
func (m *Metrics) RecordEmailChanges(inserted, updated, deleted int) {
	if m == nil {
		return
	}
	m.EmailChanges.WithLabelValues("insert").Add(float64(inserted))
	m.EmailChanges.WithLabelValues("update").Add(float64(updated))
	m.EmailChanges.WithLabelValues("delete").Add(float64(deleted))
}

// RecordReport records a report queue attempt.
func (m *Metrics) RecordReport(err error) {
	if m == nil {
		return
	}
	outcome := "queued"
	if err != nil {
		outcome = "failed"
	}
	m.ReportsQueued.WithLabelValues(outcome).Inc()
}
