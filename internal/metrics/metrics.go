package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// BorrowsTotal counts successful borrows.
	BorrowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "borrows_total",
			Help: "Total number of successful borrows",
		},
	)

	// ReturnsTotal counts successful returns.
	ReturnsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "returns_total",
			Help: "Total number of successful returns",
		},
	)

	// BorrowRejectionsTotal counts borrow attempts rejected by a business rule
	// (limit_exceeded, out_of_stock, not_found).
	BorrowRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "borrow_rejections_total",
			Help: "Total number of rejected borrow attempts by reason",
		},
		[]string{"reason"},
	)

	// OpenLoans is the number of currently open loans (set by the overdue sweep).
	OpenLoans = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "open_loans",
			Help: "Number of currently open loans",
		},
	)

	// OverdueLoans is the number of loans open longer than the configured cutoff.
	OverdueLoans = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "overdue_loans",
			Help: "Number of loans open longer than the overdue cutoff",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration, RequestTotal,
			BorrowsTotal, ReturnsTotal, BorrowRejectionsTotal,
			OpenLoans, OverdueLoans,
		)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /api/books/123 -> /api/books/{id}, /api/borrow/45 -> /api/borrow/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordBorrowRejection increments the rejection counter for the given reason.
func RecordBorrowRejection(reason string) {
	BorrowRejectionsTotal.WithLabelValues(reason).Inc()
}
