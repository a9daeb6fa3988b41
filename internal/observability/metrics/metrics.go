package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the reservation and
// completion flows.
type BookingMetrics struct {
	reservationsTotal      *prometheus.CounterVec
	completionsTotal       *prometheus.CounterVec
	completionStepFailures *prometheus.CounterVec
	reserveLatency         prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dentibot",
			Subsystem: "booking",
			Name:      "reservations_total",
			Help:      "Total slot reservation attempts",
		}, []string{"outcome"}),
		completionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dentibot",
			Subsystem: "completion",
			Name:      "workflows_total",
			Help:      "Total completion workflow runs",
		}, []string{"outcome"}),
		completionStepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dentibot",
			Subsystem: "completion",
			Name:      "step_failures_total",
			Help:      "Completion step failures by step name",
		}, []string{"step"}),
		reserveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dentibot",
			Subsystem: "booking",
			Name:      "reserve_latency_seconds",
			Help:      "Latency of the locked reserve critical section",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservationsTotal, m.completionsTotal, m.completionStepFailures, m.reserveLatency)
	return m
}

func (m *BookingMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCompletion(outcome string) {
	if m == nil {
		return
	}
	m.completionsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveStepFailure(step string) {
	if m == nil {
		return
	}
	m.completionStepFailures.WithLabelValues(step).Inc()
}

func (m *BookingMetrics) ObserveReserveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.reserveLatency.Observe(seconds)
}
