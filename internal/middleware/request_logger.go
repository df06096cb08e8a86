package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/api"
	"github.com/mantonx/seasontracker/internal/logger"
)

// RequestLogger logs one line per completed request. Health probes are
// logged at debug level only.
func RequestLogger() gin.HandlerFunc {
	log := logger.Named("http")

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"size", c.Writer.Size(),
			"ip", c.ClientIP(),
			"request_id", c.GetString(api.RequestIDKey),
		}

		switch {
		case c.Request.URL.Path == "/api/health":
			log.Debug("HTTP request", fields...)
		case c.Writer.Status() >= 500:
			log.Error("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// ErrorLogger logs errors attached to the gin context with c.Error
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			logger.Error("Request error",
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"error", err.Error(),
				"type", err.Type,
				"request_id", c.GetString(api.RequestIDKey),
			)
		}
	}
}
