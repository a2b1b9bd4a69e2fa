package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/export"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/reports"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/tracking"
	apperrors "github.com/frostdev-ops/merchant-insights/pkg/errors"
	"github.com/frostdev-ops/merchant-insights/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// ReportRequestBody is the JSON body of a report build. Dates are YYYY-MM-DD.
type ReportRequestBody struct {
	Type          string `json:"type" binding:"required"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	OrderStatus   string `json:"order_status"`
	PaymentStatus string `json:"payment_status"`
}

// toRequest parses and validates the body.
func (b ReportRequestBody) toRequest() (insights.ReportRequest, error) {
	req := insights.ReportRequest{
		Type: insights.ReportType(strings.ToLower(strings.TrimSpace(b.Type))),
		Filters: insights.ReportFilters{
			OrderStatus:   b.OrderStatus,
			PaymentStatus: b.PaymentStatus,
		},
	}

	var err error
	if req.DateRange.Start, err = parseDate(b.StartDate, "start_date"); err != nil {
		return req, err
	}
	if req.DateRange.End, err = parseDate(b.EndDate, "end_date"); err != nil {
		return req, err
	}
	if err := reports.Validate(req); err != nil {
		return req, toAppError(err)
	}
	return req, nil
}

func parseDate(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(insights.DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.WithDetails(apperrors.ErrInvalidDateRange, field+" must be YYYY-MM-DD")
	}
	return t, nil
}

// BuildReport builds a report for on-screen display. When the build fails, the
// previous result for the same report type is returned in the error details.
func (h *Handlers) BuildReport(c *gin.Context) {
	var body ReportRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendAppError(c, apperrors.WithDetails(apperrors.ErrBadRequest, err.Error()))
		return
	}
	req, err := body.toRequest()
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	storeID, err := h.storeID(c)
	if err != nil {
		utils.SendAppError(c, toAppError(err))
		return
	}

	result, err := h.builder.Build(c.Request.Context(), storeID, req)
	panel := h.panels.Get(storeID, req.Type)
	shown := panel.Apply(result, err)
	if err != nil {
		_ = c.Error(err)
		var extra map[string]interface{}
		if shown != nil {
			extra = map[string]interface{}{"previous_result": reports.Display(shown, h.cfg.Reports.DisplayRows)}
		}
		utils.SendAppErrorWithDetails(c, toAppError(err), extra)
		return
	}

	h.tracker.Track(c.Request.Context(), storeID, tracking.EventReportViewed, map[string]interface{}{
		"report_type": string(req.Type),
		"rows":        len(result.Rows),
	})

	utils.SendSuccess(c, reports.Display(result, h.cfg.Reports.DisplayRows))
}

// GetLastReport returns the last successfully built report of a type.
func (h *Handlers) GetLastReport(c *gin.Context) {
	storeID, err := h.storeID(c)
	if err != nil {
		utils.SendAppError(c, toAppError(err))
		return
	}
	t := insights.ReportType(c.Param("type"))
	if !t.Valid() {
		utils.SendAppError(c, apperrors.WithDetails(apperrors.ErrUnknownReportType, c.Param("type")))
		return
	}

	last := h.panels.Get(storeID, t).Last()
	if last == nil {
		utils.SendAppError(c, apperrors.WithDetails(apperrors.ErrNotFound, "no report of this type has been built yet"))
		return
	}
	utils.SendSuccess(c, reports.Display(last, h.cfg.Reports.DisplayRows))
}

// ExportReport builds a report and streams it as a CSV attachment. Exports
// are never row-capped.
func (h *Handlers) ExportReport(c *gin.Context) {
	body := ReportRequestBody{
		Type:          c.Param("type"),
		StartDate:     c.Query("start"),
		EndDate:       c.Query("end"),
		OrderStatus:   c.Query("order_status"),
		PaymentStatus: c.Query("payment_status"),
	}
	req, err := body.toRequest()
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	compress := cast.ToBool(c.DefaultQuery("compress", "false"))

	storeID, err := h.storeID(c)
	if err != nil {
		utils.SendAppError(c, toAppError(err))
		return
	}

	result, err := h.builder.Build(c.Request.Context(), storeID, req)
	if err != nil {
		_ = c.Error(err)
		utils.SendAppError(c, toAppError(err))
		return
	}

	data, err := export.CSV(result)
	if err != nil {
		_ = c.Error(err)
		utils.SendAppError(c, apperrors.ErrInternalServer)
		return
	}

	filename := export.Filename(req, h.now())
	contentType := export.ContentType
	if compress {
		if data, err = export.Gzip(data); err != nil {
			_ = c.Error(err)
			utils.SendAppError(c, apperrors.ErrInternalServer)
			return
		}
		filename += ".gz"
		contentType = "application/gzip"
	}

	if h.metrics != nil {
		h.metrics.RecordExport(string(req.Type), compress, len(data))
	}
	h.tracker.Track(c.Request.Context(), storeID, tracking.EventReportExported, map[string]interface{}{
		"report_type": string(req.Type),
		"rows":        len(result.Rows),
		"compressed":  compress,
	})

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
