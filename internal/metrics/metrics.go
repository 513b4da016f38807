package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_outcomes_total",
			Help: "Checkout orchestration outcomes by variant and error kind",
		},
		[]string{"outcome", "error_kind"},
	)

	purchaseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "purchase_orchestration_duration_seconds",
			Help:    "End-to-end duration of a purchase orchestration call",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	remoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_api_call_duration_seconds",
			Help:    "Duration of remote ticket API calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"operation", "status"},
	)

	activeCheckouts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_checkout_sessions",
			Help: "Currently open checkout sessions",
		},
	)
)

func RecordOutcome(outcome, errorKind string) {
	checkoutOutcomes.WithLabelValues(outcome, errorKind).Inc()
}

func ObservePurchase(start time.Time) {
	purchaseDuration.Observe(time.Since(start).Seconds())
}

func ObserveRemoteCall(operation, status string, start time.Time) {
	remoteCallDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

func CheckoutOpened() {
	activeCheckouts.Inc()
}

func CheckoutClosed() {
	activeCheckouts.Dec()
}
