package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency labelled by route template.
// Unrouted requests share one label so probes cannot inflate cardinality.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
