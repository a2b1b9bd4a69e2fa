package middleware

import (
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/tracking"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware attaches the process tracking session to the request
// context so handlers can tag analytics events with it.
func SessionMiddleware(store *tracking.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store != nil {
			ctx := tracking.WithSession(c.Request.Context(), store.Session())
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
