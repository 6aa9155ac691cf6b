package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Checkout outcomes.
const (
	OutcomePaid        = "paid"
	OutcomeCancelled   = "cancelled"
	OutcomeFailed      = "failed"
	OutcomeOrderFailed = "order_failed"
	OutcomeAborted     = "aborted"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_http_requests_total",
				Help: "Total number of backend requests",
			},
			[]string{"method", "path", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_http_request_duration_ms",
				Help:    "Duration of backend requests in ms",
				Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
			},
			[]string{"method", "path"},
		),
		outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_checkout_outcomes_total",
				Help: "Checkout attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveRequest records one backend call. Status 0 means no response was received.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, path, label).Inc()
	m.duration.WithLabelValues(method, path).Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) CheckoutOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}
