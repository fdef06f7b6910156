// Package escalation – Prometheus instrumentation
//
// This file exposes the counters and histograms the Sweeper records while
// walking the ladder. Label cardinality is bounded by construction: "from"
// and "to" come from the fixed status set and "cause" from the fixed cause
// constants in policy.go.
package escalation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// transitionsTotal counts applied status transitions by edge and cause.
	// Handlers record their event-driven transitions here too, so the series
	// covers the whole ladder and not just the timer path.
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doubt_transitions_total",
			Help: "Total number of doubt status transitions applied.",
		},
		[]string{"from", "to", "cause"},
	)

	// sweepDuration records how long a full sweep takes, including the
	// candidate query and every status update it applies.
	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "doubt_sweep_duration_seconds",
			Help:    "Duration of escalation sweep passes in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// sweepConflicts counts guarded updates that lost to a concurrent
	// writer. A nonzero rate is normal when handlers and the sweeper race.
	sweepConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "doubt_sweep_conflicts_total",
			Help: "Total number of sweep transitions skipped because the doubt changed concurrently.",
		},
	)

	// sweepErrors counts per-doubt failures that were logged and skipped.
	sweepErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "doubt_sweep_errors_total",
			Help: "Total number of sweep transitions that failed with a non-conflict error.",
		},
	)
)

func init() {
	prometheus.MustRegister(transitionsTotal, sweepDuration, sweepConflicts, sweepErrors)
}

// RecordTransition increments doubt_transitions_total for one applied edge.
// Handlers call this for event-driven transitions; the Sweeper calls it for
// timer-driven ones.
func RecordTransition(from, to, cause string) {
	transitionsTotal.WithLabelValues(from, to, cause).Inc()
}
