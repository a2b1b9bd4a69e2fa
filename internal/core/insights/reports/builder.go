// Package reports builds tabular merchant reports from the upstream sources.
package reports

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/collector"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/derive"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/gateway"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/normalize"
	"github.com/sirupsen/logrus"
)

// Report errors.
var (
	ErrUnknownType      = errors.New("unknown report type")
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Column headers per report type. Export and display share them.
var (
	SalesColumns     = []string{"Date", "Revenue", "Orders"}
	OrderColumns     = []string{"Order ID", "Date", "Customer", "Status", "Payment Status", "Total Amount", "Items"}
	InventoryColumns = []string{"Product ID", "Product Name", "Current Stock", "Low Stock Threshold", "Status"}
	TrafficColumns   = []string{"Date", "Views", "Unique Visitors", "Sessions"}
)

// Columns returns the fixed column set for t.
func Columns(t insights.ReportType) []string {
	switch t {
	case insights.ReportSales:
		return SalesColumns
	case insights.ReportOrders:
		return OrderColumns
	case insights.ReportInventory:
		return InventoryColumns
	case insights.ReportTraffic:
		return TrafficColumns
	}
	return nil
}

const (
	stockStatusOut = "Out of Stock"
	stockStatusLow = "Low Stock"
)

// BuildRecorder observes report builds. Implemented by the metrics collector.
type BuildRecorder interface {
	RecordReportBuild(reportType, status string, duration time.Duration)
}

// Builder builds reports for one store at a time.
type Builder struct {
	gateway  gateway.Gateway
	recorder BuildRecorder
	logger   *logrus.Logger
}

// NewBuilder creates a report builder. recorder may be nil.
func NewBuilder(g gateway.Gateway, recorder BuildRecorder, logger *logrus.Logger) *Builder {
	return &Builder{
		gateway:  g,
		recorder: recorder,
		logger:   logger,
	}
}

// Validate checks a request before any upstream call is made.
func Validate(req insights.ReportRequest) error {
	if !req.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}
	if req.Type == insights.ReportInventory {
		return nil
	}
	if req.DateRange.Start.IsZero() || req.DateRange.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidDateRange)
	}
	if req.DateRange.End.Before(req.DateRange.Start) {
		return fmt.Errorf("%w: end date is before start date", ErrInvalidDateRange)
	}
	return nil
}

// Build fetches and assembles the report described by req.
func (b *Builder) Build(ctx context.Context, storeID string, req insights.ReportRequest) (*insights.ReportResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		result *insights.ReportResult
		err    error
	)
	switch req.Type {
	case insights.ReportSales:
		result, err = b.buildSales(ctx, storeID, req)
	case insights.ReportOrders:
		result, err = b.buildOrders(ctx, storeID, req)
	case insights.ReportInventory:
		result, err = b.buildInventory(ctx, storeID, req)
	case insights.ReportTraffic:
		result, err = b.buildTraffic(ctx, storeID, req)
	}

	status := "ok"
	entry := b.logger.WithFields(logrus.Fields{
		"store_id":    storeID,
		"report_type": req.Type,
		"duration":    time.Since(start),
	})
	if err != nil {
		status = "failed"
		entry.WithError(err).Warn("Report build failed")
	} else {
		entry.WithField("rows", len(result.Rows)).Debug("Report built")
	}
	if b.recorder != nil {
		b.recorder.RecordReportBuild(string(req.Type), status, time.Since(start))
	}
	return result, err
}

func (b *Builder) buildSales(ctx context.Context, storeID string, req insights.ReportRequest) (*insights.ReportResult, error) {
	env, err := b.gateway.SalesAnalytics(ctx, storeID, gateway.Params{
		StartDate: req.DateRange.Start,
		EndDate:   req.DateRange.End,
		GroupBy:   "day",
	})
	data, err := payload(env, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales analytics: %w", err)
	}

	// A successful response without an analytics body means no revenue, not a failure.
	overview := normalize.SalesSummary(data)
	if overview == nil {
		overview = &insights.NormalizedSalesSummary{}
	}
	series := normalize.TimeSeries(data)

	rows := make([]insights.Record, 0, len(series))
	for _, p := range series {
		rows = append(rows, insights.Record{
			"Date":    p.Date.Format(insights.DateLayout),
			"Revenue": p.Revenue,
			"Orders":  p.Orders,
		})
	}

	summary := map[string]interface{}{
		"total_revenue":       overview.TotalRevenue,
		"total_orders":        overview.TotalOrders,
		"average_order_value": derive.AverageOrderValue(overview),
	}
	if g := derive.GrowthRate(overview, series); g != nil {
		summary["growth_rate_percent"] = *g
	}

	return &insights.ReportResult{
		Type:    req.Type,
		Request: req,
		Columns: SalesColumns,
		Rows:    rows,
		Summary: summary,
	}, nil
}

func (b *Builder) buildOrders(ctx context.Context, storeID string, req insights.ReportRequest) (*insights.ReportResult, error) {
	env, err := b.gateway.StoreOrders(ctx, storeID)
	data, err := payload(env, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch store orders: %w", err)
	}

	list, _ := normalize.OrderProbes.List(data)
	all, skipped := DecodeOrders(list)
	if skipped > 0 {
		b.logger.WithFields(logrus.Fields{
			"store_id": storeID,
			"skipped":  skipped,
		}).Warn("Skipped undecodable orders")
	}

	filtered := FilterOrders(all,
		InDateRange(req.DateRange),
		WithStatus(req.Filters.OrderStatus),
		WithPaymentStatus(req.Filters.PaymentStatus),
	)
	SortOrders(filtered)

	rows := make([]insights.Record, 0, len(filtered))
	for _, o := range filtered {
		rows = append(rows, insights.Record{
			"Order ID":       o.ID,
			"Date":           o.CreatedAt.Format("2006-01-02 15:04"),
			"Customer":       o.CustomerName,
			"Status":         o.Status,
			"Payment Status": o.PaymentStatus,
			"Total Amount":   o.TotalAmount,
			"Items":          o.lineItems(),
		})
	}

	s := SummarizeOrders(filtered)
	return &insights.ReportResult{
		Type:    req.Type,
		Request: req,
		Columns: OrderColumns,
		Rows:    rows,
		Summary: map[string]interface{}{
			"total_revenue":       s.TotalRevenue,
			"total_orders":        s.TotalOrders,
			"average_order_value": s.AverageOrderValue,
			"by_status":           s.ByStatus,
			"by_payment_status":   s.ByPaymentStatus,
		},
	}, nil
}

func (b *Builder) buildInventory(ctx context.Context, storeID string, req insights.ReportRequest) (*insights.ReportResult, error) {
	tasks := []collector.Task[insights.RawPayload]{
		func(ctx context.Context) (insights.RawPayload, error) {
			return payload(b.gateway.InventorySummary(ctx, storeID))
		},
		func(ctx context.Context) (insights.RawPayload, error) {
			return payload(b.gateway.LowStockProducts(ctx, storeID))
		},
	}
	settled := collector.SettleAll(ctx, tasks)

	if settled[1].Err != nil {
		return nil, fmt.Errorf("failed to fetch low stock products: %w", settled[1].Err)
	}
	low := normalize.LowStock(settled[1].Value)

	var inv *insights.InventorySummary
	if settled[0].Err != nil {
		b.logger.WithFields(logrus.Fields{
			"store_id": storeID,
			"error":    settled[0].Err.Error(),
		}).Warn("Inventory summary unavailable, counting low stock list")
	} else {
		inv = normalize.Inventory(settled[0].Value)
	}
	if inv == nil {
		inv = &insights.InventorySummary{}
	}

	rows := make([]insights.Record, 0, len(low))
	for _, p := range low {
		status := stockStatusLow
		if p.CurrentStock <= 0 {
			status = stockStatusOut
		}
		rows = append(rows, insights.Record{
			"Product ID":          p.ProductID,
			"Product Name":        p.ProductName,
			"Current Stock":       p.CurrentStock,
			"Low Stock Threshold": p.LowStockThreshold,
			"Status":              status,
		})
	}

	lowCount, outCount := derive.StockCounts(inv, low)
	return &insights.ReportResult{
		Type:    req.Type,
		Request: req,
		Columns: InventoryColumns,
		Rows:    rows,
		Summary: map[string]interface{}{
			"total_products":     inv.TotalProducts,
			"total_stock_units":  inv.TotalStockUnits,
			"low_stock_count":    lowCount,
			"out_of_stock_count": outCount,
		},
	}, nil
}

func (b *Builder) buildTraffic(ctx context.Context, storeID string, req insights.ReportRequest) (*insights.ReportResult, error) {
	days := PeriodDays(req.DateRange)
	env, err := b.gateway.TrafficAnalytics(ctx, storeID, gateway.Params{
		Period:  PeriodParam(days),
		GroupBy: "day",
	})
	data, err := payload(env, err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch traffic analytics: %w", err)
	}

	overview := normalize.TrafficSummary(data)
	if overview == nil {
		overview = &insights.NormalizedTrafficSummary{}
	}
	series := normalize.TimeSeries(data)

	rows := make([]insights.Record, 0, len(series))
	for _, p := range series {
		rows = append(rows, insights.Record{
			"Date":            p.Date.Format(insights.DateLayout),
			"Views":           p.Views,
			"Unique Visitors": p.UniqueVisitors,
			"Sessions":        p.UniqueSessions,
		})
	}
	if len(rows) == 0 {
		rows = append(rows, insights.Record{
			"Date": fmt.Sprintf("%s to %s",
				req.DateRange.Start.Format(insights.DateLayout),
				req.DateRange.End.Format(insights.DateLayout)),
			"Views":           overview.TotalViews,
			"Unique Visitors": overview.UniqueVisitors,
			"Sessions":        overview.UniqueSessions,
		})
	}

	return &insights.ReportResult{
		Type:    req.Type,
		Request: req,
		Columns: TrafficColumns,
		Rows:    rows,
		Summary: map[string]interface{}{
			"period_days":           days,
			"total_views":           overview.TotalViews,
			"unique_visitors":       overview.UniqueVisitors,
			"unique_sessions":       overview.UniqueSessions,
			"avg_views_per_session": overview.AvgViewsPerSession,
		},
	}, nil
}

// PeriodDays is the inclusive day count of r, at least 1.
func PeriodDays(r insights.DateRange) int {
	ms := float64(r.End.Sub(r.Start).Milliseconds())
	days := int(math.Ceil(ms/86400000)) + 1
	if days < 1 {
		return 1
	}
	return days
}

// PeriodParam formats a day count as the upstream period parameter.
func PeriodParam(days int) string {
	return fmt.Sprintf("%dd", days)
}

// payload unwraps an envelope. Unsuccessful envelopes are errors; a successful
// envelope without data yields an empty payload.
func payload(env *gateway.Envelope, err error) (insights.RawPayload, error) {
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, gateway.ErrUnsuccessful
	}
	if !env.Success {
		if env.Error != nil && env.Error.Message != "" {
			return nil, &gateway.SourceError{Message: env.Error.Message, Details: env.Error.Details}
		}
		return nil, gateway.ErrUnsuccessful
	}
	if env.Data == nil {
		return insights.RawPayload{}, nil
	}
	return env.Data, nil
}
