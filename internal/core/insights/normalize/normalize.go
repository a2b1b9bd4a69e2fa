package normalize

import (
	"sort"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
)

// Probe lists per domain. Earlier entries are the current envelope, later ones
// the shapes older backend versions still return.
var (
	SalesOverviewProbes = Probes{P("analytics.overview"), P("overview"), P("summary"), Root}

	TimeSeriesProbes = Probes{
		P("analytics.time_series"), P("analytics.timeSeries"),
		P("time_series"), P("timeSeries"), P("daily"),
	}

	TrafficOverviewProbes = Probes{P("analytics.overview"), P("overview"), P("summary")}

	ConversionRateProbes = Probes{
		P("analytics.conversion_rates"), P("conversion_rates"),
		P("overview.conversion_rates"), P("analytics.overview.conversion_rates"),
	}

	EventCountProbes = Probes{
		P("analytics.event_counts"), P("event_counts"),
		P("events_by_type"), P("analytics.events_by_type"),
	}

	ProductViewProbes = Probes{P("analytics.products"), P("products"), P("product_views"), P("items")}
	PredictionProbes  = Probes{P("predictions"), P("forecast"), P("analytics.predictions")}
	PromotionProbes   = Probes{P("suggestions"), P("promotions"), P("items")}
	PricingProbes     = Probes{P("strategy.recommendations"), P("recommendations"), P("items")}
	InventoryProbes   = Probes{P("summary"), P("inventory"), P("overview"), Root}
	LowStockProbes    = Probes{P("products"), P("low_stock_products"), P("items")}
	OrderProbes       = Probes{P("orders"), P("items"), P("data.orders")}
)

// SalesSummary normalizes a sales analytics or sales summary payload. It returns
// nil when no known overview shape is present.
func SalesSummary(p insights.RawPayload) *insights.NormalizedSalesSummary {
	obj, _ := SalesOverviewProbes.Object(p)
	if obj == nil {
		return nil
	}
	return &insights.NormalizedSalesSummary{
		TotalRevenue:          Money(field(obj, "total_revenue", "revenue", "totalRevenue")),
		TotalOrders:           Count(field(obj, "total_orders", "orders", "order_count", "totalOrders")),
		AverageOrderValue:     Money(field(obj, "average_order_value", "avg_order_value", "averageOrderValue")),
		GrowthRatePercent:     Rate(field(obj, "growth_rate", "revenue_growth", "growthRate", "growth_rate_percent")),
		ConversionRatePercent: Rate(field(obj, "conversion_rate", "conversionRate")),
	}
}

// TimeSeries normalizes the day-bucketed series into chronological order. Points
// without a parseable date are dropped; numeric fields default to 0.
func TimeSeries(p insights.RawPayload) []insights.TimeSeriesPoint {
	list, _ := TimeSeriesProbes.List(p)
	if list == nil {
		return nil
	}

	points := make([]insights.TimeSeriesPoint, 0, len(list))
	for _, item := range list {
		obj, ok := asMap(item)
		if !ok {
			continue
		}
		date, ok := Date(field(obj, "date", "day", "period", "bucket"))
		if !ok {
			continue
		}
		points = append(points, insights.TimeSeriesPoint{
			Date:           date,
			Revenue:        Money(field(obj, "revenue", "total_revenue")),
			Orders:         Count(field(obj, "orders", "order_count", "total_orders")),
			Views:          Count(field(obj, "views", "total_views", "page_views")),
			UniqueVisitors: Count(field(obj, "unique_visitors", "visitors")),
			UniqueSessions: Count(field(obj, "unique_sessions", "sessions")),
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// TrafficSummary normalizes a traffic analytics payload.
func TrafficSummary(p insights.RawPayload) *insights.NormalizedTrafficSummary {
	overview, _ := TrafficOverviewProbes.Object(p)
	rates, _ := ConversionRateProbes.Object(p)
	events, _ := EventCountProbes.Any(p)
	if overview == nil && rates == nil && events == nil {
		return nil
	}

	out := &insights.NormalizedTrafficSummary{EventCounts: eventCounts(events)}
	if overview != nil {
		out.TotalViews = Count(field(overview, "total_views", "views", "totalViews"))
		out.UniqueVisitors = Count(field(overview, "unique_visitors", "uniqueVisitors"))
		out.UniqueSessions = Count(field(overview, "unique_sessions", "sessions", "uniqueSessions"))
		if v := field(overview, "avg_views_per_session", "avgViewsPerSession"); v != nil {
			out.AvgViewsPerSession = Float(v)
		} else if out.UniqueSessions > 0 {
			out.AvgViewsPerSession = float64(out.TotalViews) / float64(out.UniqueSessions)
		}
	}
	if rates != nil {
		out.ConversionRates = insights.ConversionRates{
			CartConversion:     Rate(field(rates, "cart_conversion", "cartConversion", "add_to_cart_rate")),
			PurchaseConversion: Rate(field(rates, "purchase_conversion", "purchaseConversion")),
			OverallConversion:  Rate(field(rates, "overall_conversion", "overallConversion", "conversion_rate")),
		}
	}
	return out
}

// eventCounts accepts either {"product_view": 12} or
// [{"event_type": "product_view", "count": 12}].
func eventCounts(v interface{}) map[string]int {
	counts := make(map[string]int)
	switch t := v.(type) {
	case map[string]interface{}:
		for k, n := range t {
			counts[k] = Count(n)
		}
	case []interface{}:
		for _, item := range t {
			obj, ok := asMap(item)
			if !ok {
				continue
			}
			name := String(field(obj, "event_type", "type", "event", "name"))
			if name == "" {
				continue
			}
			counts[name] += Count(field(obj, "count", "total", "value"))
		}
	}
	return counts
}

// ProductViews normalizes the ranked product-view list in upstream order.
func ProductViews(p insights.RawPayload) []insights.ProductViewStat {
	list, _ := ProductViewProbes.List(p)
	if list == nil {
		return nil
	}
	out := make([]insights.ProductViewStat, 0, len(list))
	for _, item := range list {
		obj, ok := asMap(item)
		if !ok {
			continue
		}
		out = append(out, insights.ProductViewStat{
			ProductID: String(field(obj, "product_id", "productId", "id")),
			Name:      String(field(obj, "name", "product_name", "title")),
			Views:     Count(field(obj, "views", "view_count", "count")),
		})
	}
	return out
}

// Predictions normalizes the sales forecast.
func Predictions(p insights.RawPayload) *insights.PredictionSummary {
	obj, _ := PredictionProbes.Object(p)
	if obj == nil {
		return nil
	}
	return &insights.PredictionSummary{
		PredictedRevenue: Money(field(obj, "predicted_revenue", "revenue", "forecast_revenue")),
		PredictedOrders:  Count(field(obj, "predicted_orders", "orders")),
		Confidence:       Rate(field(obj, "confidence", "confidence_score")),
		Trend:            String(field(obj, "trend", "direction")),
	}
}

// Promotions normalizes promo suggestions.
func Promotions(p insights.RawPayload) []insights.PromoSuggestion {
	list, _ := PromotionProbes.List(p)
	if list == nil {
		return nil
	}
	out := make([]insights.PromoSuggestion, 0, len(list))
	for _, item := range list {
		obj, ok := asMap(item)
		if !ok {
			continue
		}
		out = append(out, insights.PromoSuggestion{
			Title:           String(field(obj, "title", "name")),
			Description:     String(field(obj, "description", "reason")),
			DiscountPercent: Rate(field(obj, "discount_percent", "discount", "discountPercent")),
		})
	}
	return out
}

// Pricing normalizes pricing-strategy recommendations.
func Pricing(p insights.RawPayload) []insights.PricingRecommendation {
	list, _ := PricingProbes.List(p)
	if list == nil {
		return nil
	}
	out := make([]insights.PricingRecommendation, 0, len(list))
	for _, item := range list {
		obj, ok := asMap(item)
		if !ok {
			continue
		}
		out = append(out, insights.PricingRecommendation{
			ProductID:      String(field(obj, "product_id", "productId", "id")),
			ProductName:    String(field(obj, "product_name", "name")),
			CurrentPrice:   Money(field(obj, "current_price", "price")),
			SuggestedPrice: Money(field(obj, "suggested_price", "recommended_price")),
			Reason:         String(field(obj, "reason", "rationale")),
		})
	}
	return out
}

// Inventory normalizes the inventory summary.
func Inventory(p insights.RawPayload) *insights.InventorySummary {
	obj, _ := InventoryProbes.Object(p)
	if obj == nil {
		return nil
	}
	return &insights.InventorySummary{
		TotalProducts:   Count(field(obj, "total_products", "products", "totalProducts")),
		TotalStockUnits: Count(field(obj, "total_stock", "total_stock_units", "total_units")),
		LowStockCount:   Count(field(obj, "low_stock_count", "low_stock", "lowStockCount")),
		OutOfStockCount: Count(field(obj, "out_of_stock_count", "out_of_stock", "outOfStockCount")),
	}
}

// LowStock normalizes the low-stock product list.
func LowStock(p insights.RawPayload) []insights.LowStockProduct {
	list, _ := LowStockProbes.List(p)
	if list == nil {
		return nil
	}
	out := make([]insights.LowStockProduct, 0, len(list))
	for _, item := range list {
		obj, ok := asMap(item)
		if !ok {
			continue
		}
		out = append(out, insights.LowStockProduct{
			ProductID:         String(field(obj, "product_id", "productId", "id")),
			ProductName:       String(field(obj, "product_name", "name")),
			CurrentStock:      Count(field(obj, "current_stock", "stock", "quantity")),
			LowStockThreshold: Count(field(obj, "low_stock_threshold", "threshold")),
		})
	}
	return out
}

// Normalize builds the canonical model from a set of settled outcomes. It
// dispatches by domain tag, so outcome order does not matter. Failed domains stay
// nil; empty or unrecognized payloads produce zero-valued defaults.
func Normalize(outcomes []insights.SourceOutcome) *insights.Model {
	byDomain := make(map[insights.Domain]insights.SourceOutcome, len(outcomes))
	for _, o := range outcomes {
		byDomain[o.Domain] = o
	}

	m := &insights.Model{}

	if o, ok := usable(byDomain, insights.DomainSales); ok {
		m.Sales = orDefault(SalesSummary(o.Payload), &insights.NormalizedSalesSummary{})
		m.SalesSeries = orEmpty(TimeSeries(o.Payload))
	} else if o, ok := usable(byDomain, insights.DomainSalesSummary); ok {
		m.Sales = orDefault(SalesSummary(o.Payload), &insights.NormalizedSalesSummary{})
	}

	if o, ok := usable(byDomain, insights.DomainTraffic); ok {
		m.Traffic = orDefault(TrafficSummary(o.Payload), &insights.NormalizedTrafficSummary{EventCounts: map[string]int{}})
		m.TrafficSeries = orEmpty(TimeSeries(o.Payload))
	}
	if o, ok := usable(byDomain, insights.DomainProductViews); ok {
		m.ProductViews = orEmpty(ProductViews(o.Payload))
	}
	if o, ok := usable(byDomain, insights.DomainPredictions); ok {
		m.Predictions = orDefault(Predictions(o.Payload), &insights.PredictionSummary{})
	}
	if o, ok := usable(byDomain, insights.DomainPromotions); ok {
		m.Promotions = orEmpty(Promotions(o.Payload))
	}
	if o, ok := usable(byDomain, insights.DomainPricing); ok {
		m.Pricing = orEmpty(Pricing(o.Payload))
	}
	if o, ok := usable(byDomain, insights.DomainInventory); ok {
		m.Inventory = orDefault(Inventory(o.Payload), &insights.InventorySummary{})
	}
	if o, ok := usable(byDomain, insights.DomainLowStock); ok {
		m.LowStock = orEmpty(LowStock(o.Payload))
	}

	return m
}

// usable reports whether a domain was requested and did not fail.
func usable(byDomain map[insights.Domain]insights.SourceOutcome, d insights.Domain) (insights.SourceOutcome, bool) {
	o, ok := byDomain[d]
	if !ok || o.Status == insights.StatusFailed {
		return o, false
	}
	return o, true
}

func orDefault[T any](v *T, def *T) *T {
	if v == nil {
		return def
	}
	return v
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
