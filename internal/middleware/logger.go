package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"pazargate/pkg/logger"
)

// RequestLogger logs HTTP requests through the application logger.
// Health and metrics probes are skipped to keep the log readable.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	skip := map[string]struct{}{
		"/health":  {},
		"/ready":   {},
		"/metrics": {},
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		entry := "%s %s -> %d (%s) ip=%s"
		args := []interface{}{c.Request.Method, path, status, latency, GetClientIP(c)}

		if len(c.Errors) > 0 {
			entry += " errors=%s"
			args = append(args, c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error(entry, args...)
		case status >= 400:
			log.Warn(entry, args...)
		default:
			log.Info(entry, args...)
		}
	}
}
