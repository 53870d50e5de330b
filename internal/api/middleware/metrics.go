package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"seatledger.io/ledger/internal/metrics"
)

// unmatchedRoute labels requests gin could not route, keeping label cardinality bounded.
const unmatchedRoute = "unmatched"

// PrometheusMetrics records request count, latency and in-flight requests.
// Endpoints are labeled by route template, not by raw path.
func PrometheusMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = unmatchedRoute
		}
		metrics.RecordAPIRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
