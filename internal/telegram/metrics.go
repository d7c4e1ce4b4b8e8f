package telegram

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "telegram",
		Name:      "api_calls_total",
		Help:      "Bot API calls grouped by method and outcome.",
	}, []string{"method", "outcome"})

	updatesHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Subsystem: "telegram",
		Name:      "updates_total",
		Help:      "Inbound updates grouped by how they were handled.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(apiCalls, updatesHandled)
}

func recordAPICall(method string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	apiCalls.WithLabelValues(method, outcome).Inc()
}

func recordUpdate(outcome string) {
	updatesHandled.WithLabelValues(outcome).Inc()
}
