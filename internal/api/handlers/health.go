package handlers

import (
	"time"

	"github.com/frostdev-ops/merchant-insights/pkg/utils"
	"github.com/frostdev-ops/merchant-insights/pkg/version"
	"github.com/gin-gonic/gin"
)

// Health reports liveness plus the component checks. The endpoint answers 200
// while the process is serving; degraded components show up under "checks".
func (h *Handlers) Health(c *gin.Context) {
	health := gin.H{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"service":   version.Service,
		"version":   version.GetBuildInfo(),
		"uptime":    h.now().Sub(h.started).Round(time.Second).String(),
	}

	if h.health != nil {
		health["checks"] = h.health.Check(c.Request.Context())
	}

	utils.SendSuccess(c, health)
}
