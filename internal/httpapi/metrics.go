package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "authorization_registry_http_request_duration_seconds",
		Help: "HTTP request latency in seconds.",
	}, []string{"method", "route", "status"})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authorization_registry_http_requests_total",
		Help: "Total HTTP requests handled.",
	}, []string{"method", "route", "status"})
)

// Metrics records request latency and counts per route, keyed by gin's
// matched route template so dynamic path segments don't explode cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		requestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
