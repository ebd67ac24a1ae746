package utils

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	bookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servicely",
			Name:      "booking_operations_total",
			Help:      "Booking coordinator operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	geoIndexOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "servicely",
			Name:      "geo_index_operations_total",
			Help:      "Live provider index operations by operation and result.",
		},
		[]string{"operation", "result"},
	)

	slotSearchProviders = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "servicely",
			Name:      "slot_search_providers",
			Help:      "Number of providers with at least one feasible duration per search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
)

// RegisterMetrics registers Prometheus metrics. Safe to call multiple times.
func RegisterMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(bookingOutcomes, geoIndexOps, slotSearchProviders)
	})
}

func IncBooking(operation, outcome string) {
	BookingCounter(operation, outcome).Inc()
}

// BookingCounter is the booking_operations_total series for one operation and outcome.
func BookingCounter(operation, outcome string) prometheus.Counter {
	return bookingOutcomes.WithLabelValues(operation, outcome)
}

func IncGeoIndex(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	geoIndexOps.WithLabelValues(operation, result).Inc()
}

func ObserveSearchResults(n int) {
	slotSearchProviders.Observe(float64(n))
}
