package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	slotFetchTotal  *prometheus.CounterVec
	submissionTotal *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		slotFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellappoint",
			Subsystem: "booking",
			Name:      "slot_fetch_total",
			Help:      "Total availability fetches",
		}, []string{"status"}),
		submissionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellappoint",
			Subsystem: "booking",
			Name:      "submission_total",
			Help:      "Total appointment submission attempts",
		}, []string{"status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wellappoint",
			Subsystem: "booking",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of upstream booking API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotFetchTotal, m.submissionTotal, m.upstreamLatency)
	return m
}

func (m *BookingMetrics) ObserveSlotFetch(status string) {
	if m == nil {
		return
	}
	m.slotFetchTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveSubmission(status string) {
	if m == nil {
		return
	}
	m.submissionTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveUpstreamLatency(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(endpoint).Observe(seconds)
}
