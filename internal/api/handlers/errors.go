package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/frostdev-ops/merchant-insights/internal/core/dashboard"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/collector"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/gateway"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/reports"
	apperrors "github.com/frostdev-ops/merchant-insights/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// toAppError maps domain errors to API errors. Unknown errors become a bare
// 500 so internal messages never reach the client.
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	var srcErr *gateway.SourceError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, reports.ErrUnknownType):
		return apperrors.WithDetails(apperrors.ErrUnknownReportType, err.Error())
	case errors.Is(err, reports.ErrInvalidDateRange):
		return apperrors.WithDetails(apperrors.ErrInvalidDateRange, err.Error())
	case errors.Is(err, dashboard.ErrUnknownView):
		return apperrors.WithDetails(apperrors.ErrNotFound, err.Error())
	case errors.Is(err, collector.ErrStaleCycle):
		return apperrors.ErrSuperseded
	case errors.Is(err, gateway.ErrStoreNotFound):
		return apperrors.ErrStoreNotFound
	case errors.As(err, &srcErr), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.ErrUpstream, err)
	default:
		return apperrors.ErrInternalServer
	}
}

// storeID resolves the :store path parameter. UUIDs are used as-is; anything
// else is treated as a slug and resolved upstream.
func (h *Handlers) storeID(c *gin.Context) (string, error) {
	ref := c.Param("store")
	if ref == "" {
		return "", apperrors.WithDetails(apperrors.ErrBadRequest, "store is required")
	}
	if _, err := uuid.Parse(ref); err == nil || h.resolver == nil {
		return ref, nil
	}

	id, err := h.resolver.ResolveStore(c.Request.Context(), ref)
	if err != nil {
		var srcErr *gateway.SourceError
		if errors.As(err, &srcErr) && srcErr.StatusCode == http.StatusNotFound {
			return "", apperrors.ErrStoreNotFound
		}
		return "", err
	}
	return id, nil
}
