package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuga-labs/yuga-planner-api/internal/service"
)

// Metrics records method, route, status and latency for every request.
// Scrape and probe endpoints are skipped so they do not drown out the
// scheduling traffic.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	skip := map[string]struct{}{
		"/metrics": {},
		"/health":  {},
		"/ready":   {},
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			// unmatched routes collapse into one label to keep cardinality bounded
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
