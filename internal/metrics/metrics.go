package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docket_dashboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docket_dashboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docket_dashboard_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docket_dashboard_query_duration_seconds",
			Help:    "Duration of aggregate queries in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	QueryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docket_dashboard_query_errors_total",
			Help: "Total number of failed aggregate queries",
		},
		[]string{"operation"},
	)

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docket_dashboard_cache_requests_total",
			Help: "Render cache lookups by result",
		},
		[]string{"result"},
	)

	CasesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docket_dashboard_cases_ingested_total",
			Help: "Docket rows processed by ingestion, by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveQuery records the duration and outcome of one store query.
func ObserveQuery(operation string, start time.Time, err error) {
	QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		QueryErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// Middleware returns a gin middleware that records HTTP metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		c.Next()

		// Use the route pattern if available, otherwise use the path
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
