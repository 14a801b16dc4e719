// Package observability bundles the console's Prometheus collectors.
package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsoleMetrics wraps collectors tracking snapshot reads, refresh latency,
// and form submissions across the three console surfaces.
type ConsoleMetrics struct {
	reads           *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	submissions     *prometheus.CounterVec
	throttles       *prometheus.CounterVec
}

var (
	consoleMetricsOnce sync.Once
	consoleRegistry    *ConsoleMetrics
)

// Console returns the lazily-initialised metrics registry for the console
// service.
func Console() *ConsoleMetrics {
	consoleMetricsOnce.Do(func() {
		consoleRegistry = &ConsoleMetrics{
			reads: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "dbconsole",
				Subsystem: "snapshot",
				Name:      "reads_total",
				Help:      "Count of contract reads segmented by read name and outcome.",
			}, []string{"read", "outcome"}),
			refreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "dbconsole",
				Subsystem: "snapshot",
				Name:      "refresh_duration_seconds",
				Help:      "Latency distribution for full snapshot refreshes per surface.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"surface"}),
			submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "dbconsole",
				Subsystem: "forms",
				Name:      "submissions_total",
				Help:      "Count of form submissions segmented by surface, action, and outcome.",
			}, []string{"surface", "action", "outcome"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "dbconsole",
				Subsystem: "snapshot",
				Name:      "throttles_total",
				Help:      "Count of refreshes skipped by the rate limiter per surface.",
			}, []string{"surface"}),
		}
		prometheus.MustRegister(
			consoleRegistry.reads,
			consoleRegistry.refreshDuration,
			consoleRegistry.submissions,
			consoleRegistry.throttles,
		)
	})
	return consoleRegistry
}

// RecordRead counts one contract read and whether it resolved.
func (m *ConsoleMetrics) RecordRead(read string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.reads.WithLabelValues(labelOrUnknown(read), outcome).Inc()
}

// ObserveRefresh records the duration of a full surface refresh.
func (m *ConsoleMetrics) ObserveRefresh(surface string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshDuration.WithLabelValues(labelOrUnknown(surface)).Observe(d.Seconds())
}

// RecordSubmission counts a form submission outcome. Success means the final
// status was the action's completion message rather than a rejection or a
// chain failure.
func (m *ConsoleMetrics) RecordSubmission(surface, action string, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.submissions.WithLabelValues(labelOrUnknown(surface), labelOrUnknown(action), outcome).Inc()
}

// RecordThrottle counts a refresh skipped by the rate limiter.
func (m *ConsoleMetrics) RecordThrottle(surface string) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(labelOrUnknown(surface)).Inc()
}

func labelOrUnknown(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
