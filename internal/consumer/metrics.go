package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	auditStoredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "audit",
		Name:      "events_stored_total",
		Help:      "Attendance events written to the audit log, by topic and event type.",
	}, []string{"topic", "event_type"})

	auditStoreErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "audit",
		Name:      "store_errors_total",
		Help:      "Attendance events the audit handler failed to store; they are redelivered.",
	}, []string{"topic", "event_type"})

	auditRejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "audit",
		Name:      "records_rejected_total",
		Help:      "Records skipped because they lack outbox framing, headers or a JSON body.",
	}, []string{"topic"})

	auditLastEventGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "attendance",
		Subsystem: "audit",
		Name:      "last_event_produced_timestamp_seconds",
		Help:      "Produce time of the newest stored event per topic, for audit lag alerts.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(auditStoredCounter, auditStoreErrorCounter, auditRejectedCounter, auditLastEventGauge)
}

func recordStored(msg Message) {
	auditStoredCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
	if !msg.Timestamp.IsZero() {
		auditLastEventGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	}
}

func recordStoreError(msg Message) {
	auditStoreErrorCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
}

func recordRejected(topic string) {
	auditRejectedCounter.WithLabelValues(topic).Inc()
}
