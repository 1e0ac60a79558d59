package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the scheduling engine.
type BookingMetrics struct {
	reservationsTotal  *prometheus.CounterVec
	cancellationsTotal *prometheus.CounterVec
	reserveLatency     prometheus.Histogram
	slotCacheLookups   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medimeet",
			Subsystem: "scheduling",
			Name:      "reservations_total",
			Help:      "Total reservation attempts by outcome",
		}, []string{"outcome"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medimeet",
			Subsystem: "scheduling",
			Name:      "cancellations_total",
			Help:      "Total cancellation attempts by outcome",
		}, []string{"outcome"}),
		reserveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medimeet",
			Subsystem: "scheduling",
			Name:      "reserve_latency_seconds",
			Help:      "Latency of the reserve-and-settle transaction",
			Buckets:   prometheus.DefBuckets,
		}),
		slotCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medimeet",
			Subsystem: "scheduling",
			Name:      "slot_cache_lookups_total",
			Help:      "Slot listing cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservationsTotal, m.cancellationsTotal, m.reserveLatency, m.slotCacheLookups)
	return m
}

func (m *BookingMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCancellation(outcome string) {
	if m == nil {
		return
	}
	m.cancellationsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveReserveLatency(seconds float64) {
	if m == nil {
		return
	}
	m.reserveLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveSlotCache(result string) {
	if m == nil {
		return
	}
	m.slotCacheLookups.WithLabelValues(result).Inc()
}
