package handlers

import (
	"regexp"

	"github.com/frostdev-ops/merchant-insights/internal/core/dashboard"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/tracking"
	apperrors "github.com/frostdev-ops/merchant-insights/pkg/errors"
	"github.com/frostdev-ops/merchant-insights/pkg/utils"
	"github.com/gin-gonic/gin"
)

var periodPattern = regexp.MustCompile(`^[1-9][0-9]{0,2}d$`)

// GetOverview runs the overview cycle for a store.
func (h *Handlers) GetOverview(c *gin.Context) {
	h.serveView(c, dashboard.ViewOverview)
}

// GetAnalytics runs the analytics cycle for a store.
func (h *Handlers) GetAnalytics(c *gin.Context) {
	h.serveView(c, dashboard.ViewAnalytics)
}

// GetLatestView returns the last committed snapshot without fetching.
func (h *Handlers) GetLatestView(c *gin.Context) {
	storeID, err := h.storeID(c)
	if err != nil {
		utils.SendAppError(c, toAppError(err))
		return
	}

	snap, ok := h.dashboard.Latest(storeID, dashboard.View(c.Param("view")))
	if !ok {
		utils.SendAppError(c, apperrors.WithDetails(apperrors.ErrNotFound, "no snapshot has been collected for this view yet"))
		return
	}
	utils.SendSuccess(c, snap)
}

func (h *Handlers) serveView(c *gin.Context, view dashboard.View) {
	period := c.DefaultQuery("period", h.cfg.Insights.DefaultPeriod)
	if !periodPattern.MatchString(period) {
		utils.SendAppError(c, apperrors.WithDetails(apperrors.ErrBadRequest, "period must look like 30d"))
		return
	}

	storeID, err := h.storeID(c)
	if err != nil {
		utils.SendAppError(c, toAppError(err))
		return
	}

	snap, err := h.dashboard.Refresh(c.Request.Context(), storeID, view, period)
	if err != nil {
		_ = c.Error(err)
		utils.SendAppError(c, toAppError(err))
		return
	}

	h.tracker.Track(c.Request.Context(), storeID, tracking.EventDashboardView, map[string]interface{}{
		"view":   string(view),
		"period": period,
	})

	utils.SendSuccessWithMeta(c, snap, gin.H{
		"failed_sources": snap.FailedSources(),
		"total_insights": snap.TotalInsights,
	})
}
