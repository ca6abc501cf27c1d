package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/memeforanyone/logger"
)

// RequestLogger logs every request with method, path, status and duration.
// The health endpoint is skipped.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		fields := map[string]interface{}{
			"method":              c.Request.Method,
			"path":                path,
			logger.FieldStatus:    status,
			logger.FieldDuration:  latency.Milliseconds(),
			"client":              c.ClientIP(),
			logger.FieldRequestID: c.GetString(RequestIDKey),
		}
		if latency > 500*time.Millisecond {
			fields["slow"] = true
		}

		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Debug("request completed", fields)
		}
	}
}
