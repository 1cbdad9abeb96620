package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/myrush/myrush-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics times every request under its route template so /courts/:id stays
// one series. Paths in skip (the scrape endpoint, probes) are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	ignored := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		ignored[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := ignored[route]; ok && route != "" {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
