// Package middleware contains gin middleware shared by all routes.
// File: middleware/request_logger.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"heart-sync/logger"
)

// RequestLogger logs each HTTP request with its status and latency through
// the application's leveled loggers.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		if status >= 500 {
			logger.Error.Printf("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, latency)
		} else if status >= 400 {
			logger.Warn.Printf("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, latency)
		} else {
			logger.Info.Printf("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, latency)
		}
	}
}
