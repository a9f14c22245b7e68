// Package metrics holds the Prometheus instruments of the asctl client.
//
// All instruments are registered on [Registry]; [Handler] exposes them for
// the watch command's --metrics-addr listener.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry every asctl instrument is registered on.
var Registry = prometheus.NewRegistry()

var (
	// API metrics
	apiCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asctl",
			Subsystem: "api",
			Name:      "calls_total",
			Help:      "Total number of coordinator API calls by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	apiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "asctl",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of coordinator API calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"endpoint"},
	)

	// Session metrics
	tokenRotationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "asctl",
			Subsystem: "session",
			Name:      "token_rotations_total",
			Help:      "Number of responses that carried a rotation token",
		},
	)

	// Build job metrics
	pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asctl",
			Subsystem: "buildjobs",
			Name:      "polls_total",
			Help:      "Build record polls by result (success, transient, auth_expired)",
		},
		[]string{"result"},
	)

	buildRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "asctl",
			Subsystem: "buildjobs",
			Name:      "records",
			Help:      "Build records of the last applied poll by status",
		},
		[]string{"status"},
	)

	// Workflow metrics
	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "asctl",
			Subsystem: "workflow",
			Name:      "actions_total",
			Help:      "Provisioning actions by action and outcome",
		},
		[]string{"action", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		apiCallsTotal,
		apiLatency,
		tokenRotationsTotal,
		pollsTotal,
		buildRecords,
		actionsTotal,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordAPICall records one API round trip.
func RecordAPICall(endpoint, result string, latency float64) {
	apiCallsTotal.WithLabelValues(endpoint, result).Inc()
	apiLatency.WithLabelValues(endpoint).Observe(latency)
}

// RecordTokenRotation counts a response that carried a rotation token.
func RecordTokenRotation() {
	tokenRotationsTotal.Inc()
}

// RecordPoll records the outcome of one build record poll.
func RecordPoll(result string) {
	pollsTotal.WithLabelValues(result).Inc()
}

// RecordBuildRecords replaces the per-status build record gauge.
func RecordBuildRecords(countByStatus map[string]int) {
	buildRecords.Reset()
	for status, n := range countByStatus {
		buildRecords.WithLabelValues(status).Set(float64(n))
	}
}

// RecordAction records the outcome of a provisioning action.
func RecordAction(action, outcome string) {
	actionsTotal.WithLabelValues(action, outcome).Inc()
}

// PollCounter returns the poll counter for result.
func PollCounter(result string) prometheus.Counter {
	return pollsTotal.WithLabelValues(result)
}
