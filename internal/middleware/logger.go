package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
)

// RequestLogger logs each request after it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		logger.Request(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
