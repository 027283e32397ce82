package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records outcomes of the checkout transaction core.
type CheckoutMetrics struct {
	duration  *prometheus.HistogramVec
	committed prometheus.Counter
	failed    *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout executions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	committed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_committed_total",
		Help: "Checkouts that committed an invoice.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Checkouts that failed before commit, by error code.",
	}, []string{"code"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_allocation_conflicts_total",
		Help: "Batch allocation retries caused by concurrent stock movement.",
	})
	reg.MustRegister(duration, committed, failed, conflicts)
	return &CheckoutMetrics{
		duration:  duration,
		committed: committed,
		failed:    failed,
		conflicts: conflicts,
	}
}

// ObserveDuration records how long a checkout took, labelled by outcome.
func (c *CheckoutMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncCommitted increments the committed-invoice counter.
func (c *CheckoutMetrics) IncCommitted() {
	if c == nil || c.committed == nil {
		return
	}
	c.committed.Inc()
}

// IncFailed increments the failure counter for the given error code.
func (c *CheckoutMetrics) IncFailed(code string) {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncAllocationConflict counts one optimistic-lock retry.
func (c *CheckoutMetrics) IncAllocationConflict() {
	if c == nil || c.conflicts == nil {
		return
	}
	c.conflicts.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
