// Package metrics exposes Prometheus collectors for dataset loads and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source labels.
const (
	SourceNEO = "neo"
	SourceCAD = "cad"
)

var (
	recordsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neo_records_extracted_total",
			Help: "Total number of records extracted, by source.",
		},
		[]string{"source"},
	)

	fieldWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neo_field_warnings_total",
			Help: "Total number of tabular fields degraded to their default, by column.",
		},
		[]string{"field"},
	)

	rowsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neo_rows_rejected_total",
			Help: "Total number of rows excluded from extraction, by source.",
		},
		[]string{"source"},
	)

	extractionSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neo_extraction_duration_seconds",
			Help:    "Duration of a single file extraction in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	loadFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "neo_load_failures_total",
			Help: "Total number of dataset loads that failed and kept the previous snapshot.",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neo_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"route", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neo_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

func init() {
	prometheus.MustRegister(
		recordsExtracted,
		fieldWarnings,
		rowsRejected,
		extractionSeconds,
		loadFailures,
		httpRequestsTotal,
		httpDurationSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveExtraction records the outcome of one file extraction.
func ObserveExtraction(source string, records, rejected int, d time.Duration) {
	recordsExtracted.WithLabelValues(source).Add(float64(records))
	if rejected > 0 {
		rowsRejected.WithLabelValues(source).Add(float64(rejected))
	}
	extractionSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// FieldWarning counts one degraded tabular field.
func FieldWarning(field string) {
	if field == "" {
		field = "row"
	}
	fieldWarnings.WithLabelValues(field).Inc()
}

// LoadFailed counts one failed dataset load.
func LoadFailed() {
	loadFailures.Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
// Requests are labelled by chi route pattern so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
