package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gronit/club-portal/pkg/logger"
	"github.com/gronit/club-portal/pkg/telemetry"
)

// RequestLogger logs one line per request and records its latency in
// http_request_duration_seconds. Paths in skipPaths are neither logged nor
// measured.
func RequestLogger(skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range skipPaths {
			if matchPath(c.Request.URL.Path, p) {
				c.Next()
				return
			}
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		telemetry.Metrics().HTTPRequestDuration.Record(c.Request.Context(), latency.Seconds(),
			telemetry.MethodAttr(c.Request.Method),
			telemetry.RouteAttr(route),
			telemetry.StatusCodeAttr(status),
		)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("bytes", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			logger.ErrorCtx(ctx, "request completed", fields...)
		case status >= 400:
			logger.WarnCtx(ctx, "request completed", fields...)
		default:
			logger.InfoCtx(ctx, "request completed", fields...)
		}
	}
}
