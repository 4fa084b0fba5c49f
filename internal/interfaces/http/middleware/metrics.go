package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"neypot.backend/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// MetricsMiddleware records request latency by route template, so path
// parameters never explode label cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
