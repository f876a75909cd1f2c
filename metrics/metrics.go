package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "appointly"

var (
	once sync.Once

	bookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_attempts_total",
			Help:      "Booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_transitions_total",
			Help:      "Booking status changes by target status.",
		},
		[]string{"status"},
	)

	customersBlocked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customers_blocked_total",
		Help:      "Customers blocked after repeated missed appointments.",
	})

	transactionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "booking_transaction_duration_seconds",
		Help:      "Time spent in the booking transaction.",
		Buckets:   prometheus.DefBuckets,
	})

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by template and result.",
		},
		[]string{"template", "result"},
	)
)

// Booking outcome labels.
const (
	OutcomeCreated     = "created"
	OutcomeConflict    = "conflict"
	OutcomeBlocked     = "blocked"
	OutcomeInvalid     = "invalid"
	OutcomeAborted     = "aborted"
	OutcomeUnavailable = "unavailable"
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingOutcomes, statusTransitions, customersBlocked, transactionDuration, notifications)
	})
}

func IncBooking(outcome string) {
	bookingOutcomes.WithLabelValues(outcome).Inc()
}

func IncStatusTransition(status string) {
	statusTransitions.WithLabelValues(status).Inc()
}

func IncCustomerBlocked() {
	customersBlocked.Inc()
}

func ObserveTransaction(d time.Duration) {
	transactionDuration.Observe(d.Seconds())
}

func IncNotification(template string, ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	notifications.WithLabelValues(template, result).Inc()
}
