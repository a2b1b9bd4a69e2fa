package insights

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for time series buckets and report ranges.
const DateLayout = "2006-01-02"

// Domain identifies one upstream analytics source.
type Domain string

const (
	DomainSales        Domain = "sales"
	DomainSalesSummary Domain = "salesSummary"
	DomainTraffic      Domain = "traffic"
	DomainProductViews Domain = "productViews"
	DomainPredictions  Domain = "predictions"
	DomainPromotions   Domain = "promotions"
	DomainPricing      Domain = "pricing"
	DomainInventory    Domain = "inventory"
	DomainLowStock     Domain = "lowStock"
	DomainOrders       Domain = "orders"
)

// Status is the settled state of one source fetch.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
	StatusEmpty  Status = "empty"
)

// Tone classifies an insight for display.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneWarning  Tone = "warning"
	ToneInfo     Tone = "info"
)

// RawPayload is the decoded "data" object of an upstream envelope.
type RawPayload map[string]interface{}

// ErrorInfo describes why a source failed.
type ErrorInfo struct {
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// SourceOutcome is the settled result of one domain fetch within a collection cycle.
type SourceOutcome struct {
	Domain  Domain     `json:"domain"`
	Status  Status     `json:"status"`
	Payload RawPayload `json:"-"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// NormalizedSalesSummary is the canonical sales overview.
type NormalizedSalesSummary struct {
	TotalRevenue          decimal.Decimal `json:"total_revenue"`
	TotalOrders           int             `json:"total_orders"`
	AverageOrderValue     decimal.Decimal `json:"average_order_value"`
	GrowthRatePercent     *float64        `json:"growth_rate_percent"`
	ConversionRatePercent *float64        `json:"conversion_rate_percent"`
}

// ConversionRates holds traffic funnel rates in percent. Nil means unknown.
type ConversionRates struct {
	CartConversion     *float64 `json:"cart_conversion"`
	PurchaseConversion *float64 `json:"purchase_conversion"`
	OverallConversion  *float64 `json:"overall_conversion"`
}

// NormalizedTrafficSummary is the canonical traffic overview.
type NormalizedTrafficSummary struct {
	TotalViews         int             `json:"total_views"`
	UniqueVisitors     int             `json:"unique_visitors"`
	UniqueSessions     int             `json:"unique_sessions"`
	AvgViewsPerSession float64         `json:"avg_views_per_session"`
	EventCounts        map[string]int  `json:"event_counts"`
	ConversionRates    ConversionRates `json:"conversion_rates"`
}

// TimeSeriesPoint is one day bucket. Numeric fields are never absent.
type TimeSeriesPoint struct {
	Date           time.Time       `json:"date"`
	Revenue        decimal.Decimal `json:"revenue"`
	Orders         int             `json:"orders"`
	Views          int             `json:"views"`
	UniqueVisitors int             `json:"unique_visitors"`
	UniqueSessions int             `json:"unique_sessions"`
}

// ProductViewStat is one entry of the ranked product-view list.
type ProductViewStat struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Views     int    `json:"views"`
}

// PredictionSummary is the canonical sales forecast.
type PredictionSummary struct {
	PredictedRevenue decimal.Decimal `json:"predicted_revenue"`
	PredictedOrders  int             `json:"predicted_orders"`
	Confidence       *float64        `json:"confidence"`
	Trend            string          `json:"trend,omitempty"`
}

// PromoSuggestion is one promotional suggestion.
type PromoSuggestion struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DiscountPercent *float64 `json:"discount_percent"`
}

// PricingRecommendation is one pricing-strategy line.
type PricingRecommendation struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
	Reason         string          `json:"reason,omitempty"`
}

// InventorySummary is a point-in-time stock snapshot.
type InventorySummary struct {
	TotalProducts   int `json:"total_products"`
	TotalStockUnits int `json:"total_stock_units"`
	LowStockCount   int `json:"low_stock_count"`
	OutOfStockCount int `json:"out_of_stock_count"`
}

// LowStockProduct is one entry of the low-stock list.
type LowStockProduct struct {
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	CurrentStock      int    `json:"current_stock"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

// Model is the normalized view of one collection cycle. A nil field means the
// source failed or was not requested; an empty source yields a zero value.
type Model struct {
	Sales         *NormalizedSalesSummary   `json:"sales"`
	Traffic       *NormalizedTrafficSummary `json:"traffic"`
	SalesSeries   []TimeSeriesPoint         `json:"sales_series"`
	TrafficSeries []TimeSeriesPoint         `json:"traffic_series"`
	ProductViews  []ProductViewStat         `json:"product_views"`
	Predictions   *PredictionSummary        `json:"predictions"`
	Promotions    []PromoSuggestion         `json:"promotions"`
	Pricing       []PricingRecommendation   `json:"pricing"`
	Inventory     *InventorySummary         `json:"inventory"`
	LowStock      []LowStockProduct         `json:"low_stock"`
}

// HasAnyData reports whether any source contributed non-zero data.
func (m *Model) HasAnyData() bool {
	if m == nil {
		return false
	}
	if m.Sales != nil && (m.Sales.TotalOrders > 0 || !m.Sales.TotalRevenue.IsZero()) {
		return true
	}
	if m.Traffic != nil && (m.Traffic.TotalViews > 0 || m.Traffic.UniqueVisitors > 0) {
		return true
	}
	if m.Inventory != nil && m.Inventory.TotalProducts > 0 {
		return true
	}
	return len(m.SalesSeries) > 0 || len(m.TrafficSeries) > 0 || len(m.ProductViews) > 0 ||
		m.Predictions != nil && (m.Predictions.PredictedOrders > 0 || !m.Predictions.PredictedRevenue.IsZero()) ||
		len(m.Promotions) > 0 || len(m.Pricing) > 0 || len(m.LowStock) > 0
}

// FunnelStep is one stage of the view-to-purchase funnel.
type FunnelStep struct {
	Event string `json:"event"`
	Count int    `json:"count"`
	// RatePercent is relative to the previous step; nil for the first step or
	// when the previous step is zero.
	RatePercent *float64 `json:"rate_percent"`
}

// DerivedMetrics are computed from the normalized model, never fetched.
type DerivedMetrics struct {
	BestRevenueDay      *TimeSeriesPoint `json:"best_revenue_day"`
	BestTrafficDay      *TimeSeriesPoint `json:"best_traffic_day"`
	EffectiveConversion *float64         `json:"effective_conversion"`
	GrowthRatePercent   *float64         `json:"growth_rate_percent"`
	AverageOrderValue   decimal.Decimal  `json:"average_order_value"`
	Funnel              []FunnelStep     `json:"funnel"`
	LowStockCount       int              `json:"low_stock_count"`
	OutOfStockCount     int              `json:"out_of_stock_count"`
}

// Insight is one human-readable observation. Rank is 1-based rule order.
type Insight struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Tone   Tone   `json:"tone"`
	Rank   int    `json:"rank"`
}

// ReportType selects a report builder branch.
type ReportType string

const (
	ReportSales     ReportType = "sales"
	ReportOrders    ReportType = "orders"
	ReportInventory ReportType = "inventory"
	ReportTraffic   ReportType = "traffic"
)

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	switch t {
	case ReportSales, ReportOrders, ReportInventory, ReportTraffic:
		return true
	}
	return false
}

// DateRange is an inclusive calendar-date range.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ReportFilters narrow the orders report.
type ReportFilters struct {
	OrderStatus   string `json:"order_status,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

// ReportRequest describes a report to build.
type ReportRequest struct {
	Type      ReportType    `json:"type"`
	DateRange DateRange     `json:"date_range"`
	Filters   ReportFilters `json:"filters"`
}

// LineItem is one order line, flattened to "name (xN)" on export.
type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Record is one report row keyed by column header.
type Record map[string]interface{}

// ReportResult is tabular report data ready for display or export.
type ReportResult struct {
	Type    ReportType             `json:"type"`
	Request ReportRequest          `json:"request"`
	Columns []string               `json:"columns"`
	Rows    []Record               `json:"rows"`
	Summary map[string]interface{} `json:"summary"`
	Note    string                 `json:"note,omitempty"`
}
