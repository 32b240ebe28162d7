package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "beachrent"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	bedTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bed_transitions_total",
			Help:      "Bed and extra-bed operations by operation and result code.",
		},
		[]string{"op", "result"},
	)

	ledgerAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_anomalies_total",
			Help:      "Ledger inconsistencies tolerated while closing rentals.",
		},
		[]string{"kind"},
	)

	schedulerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_runs_total",
			Help:      "Midnight job steps by step and result.",
		},
		[]string{"step", "result"},
	)

	reportsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Daily reports persisted.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			bedTransitions,
			ledgerAnomalies,
			schedulerRuns,
			reportsGenerated,
		)
	})
}

// ObserveHTTP records one finished request.
func ObserveHTTP(route, code string, seconds float64) {
	httpRequests.WithLabelValues(route, code).Inc()
	httpDuration.WithLabelValues(route).Observe(seconds)
}

// IncTransition counts an operation outcome; result is "ok" or an error code.
func IncTransition(op, result string) {
	bedTransitions.WithLabelValues(op, result).Inc()
}

const (
	AnomalyMissingOpenEntry    = "missing_open_entry"
	AnomalyMultipleOpenEntries = "multiple_open_entries"
	AnomalyFreeingFreeBed      = "freeing_free_bed"
)

func IncAnomaly(kind string) {
	ledgerAnomalies.WithLabelValues(kind).Inc()
}

func IncSchedulerStep(step, result string) {
	schedulerRuns.WithLabelValues(step, result).Inc()
}

func IncReportsGenerated() {
	reportsGenerated.Inc()
}
