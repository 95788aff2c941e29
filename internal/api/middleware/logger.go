package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"bess-valuation/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Logger logs one structured line per request and records request metrics
// by route template.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(started)
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestSeconds.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed,
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		switch {
		case status >= 500:
			log().Error("request", attrs...)
		case status >= 400:
			log().Warn("request", attrs...)
		default:
			log().Info("request", attrs...)
		}
	}
}

func log() *slog.Logger {
	return slog.Default().With("component", "http")
}
