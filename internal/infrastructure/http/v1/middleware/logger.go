package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"shopcore/pkg/logger"
)

// RequestLogger logs each HTTP request with latency and status.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"size", c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case c.Writer.Status() >= 500:
			logger.Error(ctx, "http request", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn(ctx, "http request", fields...)
		default:
			logger.Info(ctx, "http request", fields...)
		}
	}
}
