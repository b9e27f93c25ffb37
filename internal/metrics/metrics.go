// Package metrics exposes Prometheus counters for booking outcomes and a
// gauge tracking live watch subscriptions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus collectors around one registry.
type Metrics struct {
	registry *prometheus.Registry

	admitted     prometheus.Counter
	conflicts    prometheus.Counter
	cancelled    prometheus.Counter
	watchers     prometheus.Gauge
	httpInFlight prometheus.Gauge
}

// New registers the collectors on a fresh registry, alongside the standard
// Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomreserve_reservations_admitted_total",
			Help: "Number of reservations admitted.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomreserve_reservation_conflicts_total",
			Help: "Number of reservation requests rejected for overlapping a confirmed reservation.",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomreserve_reservations_cancelled_total",
			Help: "Number of reservations cancelled.",
		}),
		watchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomreserve_watch_subscriptions",
			Help: "Number of live watch subscriptions.",
		}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomreserve_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
	}
	registry.MustRegister(m.admitted, m.conflicts, m.cancelled, m.watchers, m.httpInFlight)
	return m
}

// ReservationAdmitted increments the admission counter.
func (m *Metrics) ReservationAdmitted() {
	if m != nil {
		m.admitted.Inc()
	}
}

// ConflictRejected increments the conflict counter.
func (m *Metrics) ConflictRejected() {
	if m != nil {
		m.conflicts.Inc()
	}
}

// ReservationCancelled increments the cancellation counter.
func (m *Metrics) ReservationCancelled() {
	if m != nil {
		m.cancelled.Inc()
	}
}

// WatcherStarted records a new watch subscription.
func (m *Metrics) WatcherStarted() {
	if m != nil {
		m.watchers.Inc()
	}
}

// WatcherStopped records the end of a watch subscription.
func (m *Metrics) WatcherStopped() {
	if m != nil {
		m.watchers.Dec()
	}
}

// InstrumentHandler wraps an HTTP handler with the in-flight gauge.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return promhttp.InstrumentHandlerInFlight(m.httpInFlight, next)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
