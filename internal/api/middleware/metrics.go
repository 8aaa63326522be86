package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caryard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caryard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	importRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caryard_import_rows_total",
			Help: "Import rows by reconciliation outcome",
		},
		[]string{"outcome"},
	)

	backfillClaimedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caryard_backfill_claimed_total",
			Help: "Legacy rows claimed by owner backfill, per table",
		},
		[]string{"table"},
	)
)

// Metrics records request counts and latency per route pattern. It must sit
// inside the chi router so the route pattern (not the raw path with ids) is
// available as a label.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := strconv.Itoa(rec.status)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).
			Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordImportRows bumps the import outcome counters after a commit.
func RecordImportRows(outcome string, n int) {
	if n > 0 {
		importRowsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordBackfillClaims bumps the backfill counter for one table.
func RecordBackfillClaims(table string, n int64) {
	if n > 0 {
		backfillClaimedTotal.WithLabelValues(table).Add(float64(n))
	}
}
