// Package metrics provides Prometheus instrumentation for the backend.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "landchain",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "landchain",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ChainTransactionsTotal counts submitted admin transactions by
	// action and outcome classification.
	ChainTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "landchain",
			Name:      "chain_transactions_total",
			Help:      "Total on-chain admin transactions by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	// ChainConfirmationDuration observes how long submitted
	// transactions took to reach a terminal classification.
	ChainConfirmationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "landchain",
			Name:      "chain_confirmation_seconds",
			Help:      "Time from submission to terminal classification in seconds.",
			Buckets:   []float64{1, 5, 10, 30, 60, 90, 120, 180},
		},
	)

	// ChainPreflightFailuresTotal counts admin actions rejected before
	// submission, by stage.
	ChainPreflightFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "landchain",
			Name:      "chain_preflight_failures_total",
			Help:      "Admin actions aborted before submission, by pipeline stage.",
		},
		[]string{"action", "stage"},
	)

	// LandRequestsTotal counts land-request transitions by new status.
	LandRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "landchain",
			Name:      "land_requests_total",
			Help:      "Land request lifecycle transitions by status.",
		},
		[]string{"status"},
	)

	// SaleListingsTotal counts sale-listing transitions by new status.
	SaleListingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "landchain",
			Name:      "sale_listings_total",
			Help:      "Sale listing lifecycle transitions by status.",
		},
		[]string{"status"},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "landchain", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "landchain", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "landchain", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "landchain", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChainTransactionsTotal,
		ChainConfirmationDuration,
		ChainPreflightFailuresTotal,
		LandRequestsTotal,
		SaleListingsTotal,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime
// goroutine count into Prometheus gauges. Call in a goroutine; exits
// when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
