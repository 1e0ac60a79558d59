package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveReservation("confirmed")
	m.ObserveReservation("slot_unavailable")
	m.ObserveCancellation("cancelled")
	m.ObserveReserveLatency(0.2)
	m.ObserveSlotCache("hit")
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveReservation("confirmed")
	m.ObserveCancellation("cancelled")
	m.ObserveReserveLatency(0.1)
	m.ObserveSlotCache("miss")
}
