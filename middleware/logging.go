package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/autoteile-schmidt/service-portal-api/logger"
)

// RequestLogger writes one entry per request. Server errors log at error
// level, client errors at warn.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		details := map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   status,
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		}
		if details["path"] == "" {
			details["path"] = c.Request.URL.Path
		}
		if len(c.Errors) > 0 {
			details["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			log.Error("http", "request failed", details)
		case status >= 400:
			log.Warn("http", "request rejected", details)
		default:
			log.Info("http", "request handled", details)
		}
	}
}

// Recovery turns panics into a 500 envelope and logs them.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("http", "panic recovered", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		})
		c.AbortWithStatusJSON(500, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Interner Serverfehler",
			},
		})
	})
}
