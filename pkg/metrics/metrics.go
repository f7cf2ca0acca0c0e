package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EnvelopesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "envelopes_processed_total",
			Help: "Total number of envelopes resolved to a case action (count)",
		},
		[]string{"classification", "action"},
	)

	EnvelopeDispositionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "envelope_dispositions_total",
			Help: "Total number of queue message finalizations by disposition (count)",
		},
		[]string{"disposition"},
	)

	DeadLetteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "envelopes_dead_lettered_total",
			Help: "Total number of envelope messages dead-lettered (count)",
		},
		[]string{"reason"},
	)

	RedeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "envelope_redeliveries_total",
			Help: "Total number of envelope messages re-published for redelivery (count)",
		},
		[]string{"topic"},
	)

	EnvelopeProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "envelope_processing_duration_ms",
			Help:    "Full envelope resolution duration in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"classification"},
	)

	ExceptionRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exception_records_total",
			Help: "Exception records resolved by the creator, by outcome (count)",
		},
		[]string{"jurisdiction", "outcome"},
	)

	DuplicateDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duplicate_documents_total",
			Help: "Documents caught by the duplicate guard (count)",
		},
		[]string{"result"},
	)

	PaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment rows reaching a terminal status (count)",
		},
		[]string{"kind", "status"},
	)

	PaymentReprocessTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reprocess_total",
			Help: "Manual payment reprocess attempts (count)",
		},
		[]string{"kind", "status"},
	)

	NotificationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Downstream notification failures leaving the message for redelivery (count)",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitedRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the management API rate limiter (count)",
		},
		[]string{"path"},
	)
)

func ObserveEnvelopeDuration(d time.Duration, classification string) {
	EnvelopeProcessingDuration.WithLabelValues(classification).Observe(float64(d.Milliseconds()))
}

func RegisterProcessorMetrics() {
	prometheus.MustRegister(
		EnvelopesProcessedTotal,
		EnvelopeDispositionsTotal,
		DeadLetteredTotal,
		RedeliveriesTotal,
		EnvelopeProcessingDuration,
		ExceptionRecordsTotal,
		DuplicateDocumentsTotal,
		NotificationFailuresTotal,
	)
}

func RegisterPaymentMetrics() {
	prometheus.MustRegister(
		PaymentsTotal,
		PaymentReprocessTotal,
	)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerFailures,
	)
}

func RegisterManagementMetrics() {
	prometheus.MustRegister(
		RateLimitedRequestsTotal,
	)
}
