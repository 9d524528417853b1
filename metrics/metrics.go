// Package metrics provides Prometheus collectors for HTTP traffic and for
// the ledger itself: row counts, submissions and persistence outcomes.
// Everything registers with the default registry at package init.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	LedgerRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_rows",
			Help: "Rows currently in the in-memory ledger",
		},
	)

	SalesSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_submitted_total",
			Help: "Sale submissions by outcome (accepted, rejected)",
		},
		[]string{"outcome"},
	)

	SaveFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "store_save_failures_total",
			Help: "Failed attempts to persist the ledger workbook",
		},
	)

	BackupsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "store_backups_written_total",
			Help: "Backup copies of the store file written",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(LedgerRows)
	prometheus.MustRegister(SalesSubmitted)
	prometheus.MustRegister(SaveFailures)
	prometheus.MustRegister(BackupsWritten)
}
