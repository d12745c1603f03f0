// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeStale    = "stale"
	OutcomeComplete = "complete"
	OutcomeRejected = "rejected"
)

// Delivery sources.
const (
	SourceToken    = "token"
	SourceSession  = "session"
	SourceTutorial = "tutorial"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transitwatch_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transitwatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transitwatch_submissions_total",
			Help: "Classification submissions by outcome",
		},
		[]string{"outcome"},
	)

	LedgerRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transitwatch_ledger_records_total",
			Help: "Ledger records appended",
		},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transitwatch_deliveries_total",
			Help: "Files delivered by file type and how the file was resolved",
		},
		[]string{"file_type", "source"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(LedgerRecordsTotal)
	prometheus.MustRegister(DeliveriesTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(route, status string, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
