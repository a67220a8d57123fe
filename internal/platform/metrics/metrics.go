package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application lifecycle engine.
type Metrics struct {
	ApplicationsCreated prometheus.Counter
	Transitions         *prometheus.CounterVec
	TransitionsRejected prometheus.Counter
	StrikeOffs          prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
// Call once per process; tests pass a nil *Metrics to services instead.
func New() *Metrics {
	return &Metrics{
		ApplicationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "copydesk_applications_created_total",
			Help: "Total number of copy applications created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "copydesk_transitions_total",
			Help: "Total number of applied status transitions, by target status",
		}, []string{"to_status"}),
		TransitionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "copydesk_transitions_rejected_total",
			Help: "Total number of rejected status transitions",
		}),
		StrikeOffs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "copydesk_strike_offs_total",
			Help: "Total number of applications struck off",
		}),
	}
}

// ObserveTransition records an applied transition. Nil-safe so services can
// run without metrics in tests.
func (m *Metrics) ObserveTransition(toStatus string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(toStatus).Inc()
}

// ObserveRejection records a rejected transition. Nil-safe.
func (m *Metrics) ObserveRejection() {
	if m == nil {
		return
	}
	m.TransitionsRejected.Inc()
}

// ObserveCreated records a created application. Nil-safe.
func (m *Metrics) ObserveCreated() {
	if m == nil {
		return
	}
	m.ApplicationsCreated.Inc()
}

// ObserveStrikeOff records a struck-off application. Nil-safe.
func (m *Metrics) ObserveStrikeOff() {
	if m == nil {
		return
	}
	m.StrikeOffs.Inc()
}
