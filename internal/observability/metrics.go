package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	logSavedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "attendance",
		Subsystem: "persistence",
		Name:      "last_log_saved_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity log save.",
	})

	commandCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "router",
		Name:      "commands_total",
		Help:      "Number of recognised commands handled, by command.",
	}, []string{"command"})

	lateStartCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "router",
		Name:      "late_starts_total",
		Help:      "Number of start-work events past the deadline.",
	})

	failureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "router",
		Name:      "event_failures_total",
		Help:      "Number of aborted events grouped by failure kind.",
	}, []string{"kind"})

	commandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attendance",
		Subsystem: "router",
		Name:      "command_duration_seconds",
		Help:      "Latency of the load, mutate and save cycle per command.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(logSavedGauge, commandCounter, lateStartCounter, failureCounter, commandDuration)
}

// RecordLogSaved updates the persistence watermark gauge.
func RecordLogSaved(ts time.Time) {
	if ts.IsZero() {
		return
	}
	logSavedGauge.Set(float64(ts.Unix()))
}

// RecordCommand counts a handled command and its latency.
func RecordCommand(command string, elapsed time.Duration) {
	commandCounter.WithLabelValues(command).Inc()
	commandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// RecordLateStart counts a late start-work event.
func RecordLateStart() {
	lateStartCounter.Inc()
}

// RecordFailure counts an aborted event.
func RecordFailure(kind string) {
	failureCounter.WithLabelValues(kind).Inc()
}

// CommandCount exposes the counter for a command, for tests and diagnostics.
func CommandCount(command string) prometheus.Counter {
	return commandCounter.WithLabelValues(command)
}

// LateStarts exposes the late start counter.
func LateStarts() prometheus.Counter {
	return lateStartCounter
}
