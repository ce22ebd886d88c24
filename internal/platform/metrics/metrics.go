package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "erp",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "erp",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
}, []string{"method", "route"})

var LoanPaymentsApplied = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "erp",
	Subsystem: "loans",
	Name:      "payments_applied_total",
	Help:      "Total loan installment payments applied.",
})

var PettyCashEntriesApproved = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "erp",
	Subsystem: "pettycash",
	Name:      "entries_approved_total",
	Help:      "Total petty cash entries approved by entry type.",
}, []string{"entry_type"})

var WriteConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "erp",
	Subsystem: "db",
	Name:      "write_conflict_retries_total",
	Help:      "Total transactions retried after a serialization conflict.",
})

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
