// Package derive computes secondary metrics from a normalized insights model.
// Everything here is pure: no I/O, no clock, no randomness.
package derive

import (
	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/shopspring/decimal"
)

// Policy thresholds in percent. Not configurable.
const (
	GrowthThreshold     = 5.0
	ConversionThreshold = 3.0
)

// Funnel event names, in stage order.
const (
	EventProductView = "product_view"
	EventAddToCart   = "add_to_cart"
	EventCheckout    = "checkout"
	EventPurchase    = "purchase"
)

var funnelStages = []string{EventProductView, EventAddToCart, EventCheckout, EventPurchase}

// GrowthClass is the direction of a growth rate.
type GrowthClass int

const (
	GrowthNeutral GrowthClass = iota
	GrowthUp
	GrowthDown
)

// ClassifyGrowth uses strict inequalities: exactly ±5% is neutral.
func ClassifyGrowth(rate *float64) GrowthClass {
	switch {
	case rate == nil:
		return GrowthNeutral
	case *rate > GrowthThreshold:
		return GrowthUp
	case *rate < -GrowthThreshold:
		return GrowthDown
	}
	return GrowthNeutral
}

// HealthyConversion reports whether rate meets the threshold (inclusive).
func HealthyConversion(rate float64) bool {
	return rate >= ConversionThreshold
}

// Compute derives metrics from m. A nil model yields zero-valued metrics.
func Compute(m *insights.Model) insights.DerivedMetrics {
	if m == nil {
		return insights.DerivedMetrics{Funnel: []insights.FunnelStep{}}
	}

	d := insights.DerivedMetrics{
		BestRevenueDay:      BestRevenueDay(m.SalesSeries),
		BestTrafficDay:      BestTrafficDay(m.TrafficSeries),
		EffectiveConversion: EffectiveConversion(m),
		GrowthRatePercent:   GrowthRate(m.Sales, m.SalesSeries),
		AverageOrderValue:   AverageOrderValue(m.Sales),
		Funnel:              Funnel(m.Traffic),
	}
	d.LowStockCount, d.OutOfStockCount = StockCounts(m.Inventory, m.LowStock)
	return d
}

// BestRevenueDay returns the point with maximal revenue. Ties go to the
// chronologically first point; series are sorted by the normalizer.
func BestRevenueDay(series []insights.TimeSeriesPoint) *insights.TimeSeriesPoint {
	return best(series, func(a, b insights.TimeSeriesPoint) bool {
		return a.Revenue.GreaterThan(b.Revenue)
	})
}

// BestTrafficDay returns the point with maximal views, earliest on ties.
func BestTrafficDay(series []insights.TimeSeriesPoint) *insights.TimeSeriesPoint {
	return best(series, func(a, b insights.TimeSeriesPoint) bool {
		return a.Views > b.Views
	})
}

func best(series []insights.TimeSeriesPoint, better func(a, b insights.TimeSeriesPoint) bool) *insights.TimeSeriesPoint {
	if len(series) == 0 {
		return nil
	}
	idx := 0
	for i := 1; i < len(series); i++ {
		if better(series[i], series[idx]) ||
			(!better(series[idx], series[i]) && series[i].Date.Before(series[idx].Date)) {
			idx = i
		}
	}
	p := series[idx]
	return &p
}

// EffectiveConversion resolves the conversion rate along the fallback chain:
// traffic purchase conversion, traffic overall conversion, sales conversion rate.
func EffectiveConversion(m *insights.Model) *float64 {
	if m.Traffic != nil {
		if r := m.Traffic.ConversionRates.PurchaseConversion; r != nil {
			return copyFloat(r)
		}
		if r := m.Traffic.ConversionRates.OverallConversion; r != nil {
			return copyFloat(r)
		}
	}
	if m.Sales != nil && m.Sales.ConversionRatePercent != nil {
		return copyFloat(m.Sales.ConversionRatePercent)
	}
	return nil
}

// GrowthRate prefers the reported growth rate and otherwise compares the
// revenue of the second half of the series against the first half.
func GrowthRate(sales *insights.NormalizedSalesSummary, series []insights.TimeSeriesPoint) *float64 {
	if sales != nil && sales.GrowthRatePercent != nil {
		return copyFloat(sales.GrowthRatePercent)
	}
	if len(series) < 2 {
		return nil
	}

	mid := len(series) / 2
	prev := sumRevenue(series[:mid])
	cur := sumRevenue(series[len(series)-mid:])
	return PercentChange(cur, prev)
}

// PercentChange is (cur-prev)/prev*100, or 100 when prev is zero and cur grew.
// Zero to zero is nil: there is no rate to report.
func PercentChange(cur, prev decimal.Decimal) *float64 {
	if prev.IsZero() {
		if cur.GreaterThan(decimal.Zero) {
			v := 100.0
			return &v
		}
		return nil
	}
	v, _ := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Float64()
	return &v
}

func sumRevenue(points []insights.TimeSeriesPoint) decimal.Decimal {
	total := decimal.Zero
	for _, p := range points {
		total = total.Add(p.Revenue)
	}
	return total
}

// AverageOrderValue uses the reported value when non-zero and otherwise divides
// revenue by orders at full precision.
func AverageOrderValue(sales *insights.NormalizedSalesSummary) decimal.Decimal {
	if sales == nil {
		return decimal.Zero
	}
	if !sales.AverageOrderValue.IsZero() {
		return sales.AverageOrderValue
	}
	if sales.TotalOrders > 0 {
		return sales.TotalRevenue.Div(decimal.NewFromInt(int64(sales.TotalOrders)))
	}
	return decimal.Zero
}

// Funnel lays out the view-to-purchase stages from traffic event counts. Each
// rate is relative to the previous stage and nil where that stage is zero.
func Funnel(traffic *insights.NormalizedTrafficSummary) []insights.FunnelStep {
	steps := make([]insights.FunnelStep, 0, len(funnelStages))
	if traffic == nil {
		return steps
	}
	for i, event := range funnelStages {
		step := insights.FunnelStep{Event: event, Count: traffic.EventCounts[event]}
		if i > 0 {
			if prev := steps[i-1].Count; prev > 0 {
				r := float64(step.Count) / float64(prev) * 100
				step.RatePercent = &r
			}
		}
		steps = append(steps, step)
	}
	return steps
}

// StockCounts reads low and out-of-stock counts from the inventory summary. When
// the summary carries no counts, the low-stock list is counted instead.
func StockCounts(inv *insights.InventorySummary, low []insights.LowStockProduct) (lowStock, outOfStock int) {
	if inv != nil && (inv.LowStockCount > 0 || inv.OutOfStockCount > 0) {
		return inv.LowStockCount, inv.OutOfStockCount
	}
	for _, p := range low {
		if p.CurrentStock <= 0 {
			outOfStock++
		} else {
			lowStock++
		}
	}
	return lowStock, outOfStock
}

func copyFloat(v *float64) *float64 {
	c := *v
	return &c
}
