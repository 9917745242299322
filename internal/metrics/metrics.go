// Package metrics exposes Prometheus counters for the HTTP API and the
// club operations behind it.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RecordsWritten      *prometheus.CounterVec
	AmountRecorded      *prometheus.CounterVec
	DebtPayments        prometheus.Counter
	Rollbacks           *prometheus.CounterVec
	ReportsGenerated    *prometheus.CounterVec
	ReportSectionErrors *prometheus.CounterVec
	AuditEventsHandled  *prometheus.CounterVec
	RateLimited         prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers every metric on reg. Passing a fresh prometheus.Registry
// keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "colectas_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "colectas_http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "path"}),
		RecordsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "colectas_records_written_total",
			Help: "Records created, updated or deleted, by entity and operation.",
		}, []string{"entity", "operation"}),
		AmountRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "colectas_amount_recorded_total",
			Help: "Sum of amounts of created money records, by entity.",
		}, []string{"entity"}),
		DebtPayments: f.NewCounter(prometheus.CounterOpts{
			Name: "colectas_debt_payments_total",
			Help: "Accepted payments against member debts.",
		}),
		Rollbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "colectas_optimistic_rollbacks_total",
			Help: "Cached ledger updates rolled back after a failed write.",
		}, []string{"entity"}),
		ReportsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "colectas_reports_generated_total",
			Help: "Generated exports by format.",
		}, []string{"format"}),
		ReportSectionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "colectas_report_section_errors_total",
			Help: "Report sources that failed to load and were rendered empty.",
		}, []string{"source"}),
		AuditEventsHandled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "colectas_audit_events_total",
			Help: "Activity messages consumed by the audit worker, by result.",
		}, []string{"result"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "colectas_rate_limited_requests_total",
			Help: "Requests rejected by the per-client rate limiter.",
		}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency labelled by the matched
// route pattern. Unmatched requests are not recorded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if r.Pattern == "" {
			return
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.Pattern, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.Pattern).Observe(time.Since(start).Seconds())
	})
}
