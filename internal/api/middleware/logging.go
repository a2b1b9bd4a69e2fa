package middleware

import (
	"time"

	"github.com/frostdev-ops/merchant-insights/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LoggingMiddleware logs every request through the batch logger, keyed by the
// route template so store ids do not split the batches.
func LoggingMiddleware(log *logger.BatchLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := logrus.Fields{
			"client_ip":  c.ClientIP(),
			"request_id": GetRequestID(c),
			"user_agent": c.Request.UserAgent(),
		}
		if store := c.Param("store"); store != "" {
			fields["store"] = store
		}
		if len(c.Errors) > 0 {
			fields["error_message"] = c.Errors.String()
		}

		log.LogRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start), fields)
	}
}
