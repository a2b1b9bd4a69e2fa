package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) insights.RawPayload {
	t.Helper()
	var p insights.RawPayload
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&p))
	return p
}

func TestProbeOrderFirstMatchWins(t *testing.T) {
	p := decode(t, `{
		"overview": {"total_revenue": 1},
		"summary": {"total_revenue": 2},
		"analytics": {"overview": {"total_revenue": 3}}
	}`)

	obj, probe := SalesOverviewProbes.Object(p)
	require.NotNil(t, obj)
	assert.Equal(t, "analytics.overview", probe.String())

	delete(p, "analytics")
	_, probe = SalesOverviewProbes.Object(p)
	assert.Equal(t, "overview", probe.String())

	delete(p, "overview")
	_, probe = SalesOverviewProbes.Object(p)
	assert.Equal(t, "summary", probe.String())
}

func TestSalesSummaryLegacyShapesAgree(t *testing.T) {
	shapes := []string{
		`{"analytics": {"overview": {"total_revenue": "1250.50", "total_orders": 25, "average_order_value": 50.02, "growth_rate": 12.5}}}`,
		`{"overview": {"revenue": 1250.50, "orders": "25", "avg_order_value": "50.02", "revenue_growth": "12.5%"}}`,
		`{"summary": {"totalRevenue": 1250.5, "totalOrders": 25.0, "averageOrderValue": 50.02, "growthRate": 12.5}}`,
		`{"total_revenue": 1250.5, "order_count": 25, "average_order_value": 50.02, "growth_rate_percent": 12.5}`,
	}

	want := SalesSummary(decode(t, shapes[0]))
	require.NotNil(t, want)
	assert.True(t, decimal.RequireFromString("1250.50").Equal(want.TotalRevenue))
	assert.Equal(t, 25, want.TotalOrders)
	require.NotNil(t, want.GrowthRatePercent)
	assert.InDelta(t, 12.5, *want.GrowthRatePercent, 1e-9)
	assert.Nil(t, want.ConversionRatePercent)

	for i, raw := range shapes[1:] {
		got := SalesSummary(decode(t, raw))
		require.NotNil(t, got, "shape %d", i+1)
		assert.True(t, want.TotalRevenue.Equal(got.TotalRevenue), "shape %d revenue %s", i+1, got.TotalRevenue)
		assert.True(t, want.AverageOrderValue.Equal(got.AverageOrderValue), "shape %d aov", i+1)
		assert.Equal(t, want.TotalOrders, got.TotalOrders, "shape %d", i+1)
		require.NotNil(t, got.GrowthRatePercent, "shape %d", i+1)
		assert.InDelta(t, *want.GrowthRatePercent, *got.GrowthRatePercent, 1e-9)
	}
}

func TestTrafficLegacyShapesAgree(t *testing.T) {
	shapes := []string{
		`{"analytics": {"overview": {"total_views": 500, "unique_visitors": 120, "unique_sessions": 200},
		  "conversion_rates": {"purchase_conversion": 2.5, "cart_conversion": 10},
		  "event_counts": {"product_view": 400, "add_to_cart": 40}}}`,
		`{"overview": {"views": 500, "uniqueVisitors": 120, "sessions": 200, "conversion_rates": {"purchaseConversion": "2.5", "add_to_cart_rate": 10}},
		  "events_by_type": [{"event_type": "product_view", "count": 400}, {"event_type": "add_to_cart", "count": 40}]}`,
		`{"summary": {"totalViews": 500, "unique_visitors": 120, "uniqueSessions": 200},
		  "conversion_rates": {"purchase_conversion": 2.5, "cartConversion": 10},
		  "event_counts": [{"type": "product_view", "count": 300}, {"type": "product_view", "count": 100}, {"type": "add_to_cart", "count": 40}]}`,
	}

	want := TrafficSummary(decode(t, shapes[0]))
	require.NotNil(t, want)
	assert.Equal(t, 500, want.TotalViews)
	assert.InDelta(t, 2.5, want.AvgViewsPerSession, 1e-9)
	assert.Equal(t, map[string]int{"product_view": 400, "add_to_cart": 40}, want.EventCounts)

	for i, raw := range shapes[1:] {
		got := TrafficSummary(decode(t, raw))
		require.NotNil(t, got, "shape %d", i+1)
		assert.Equal(t, want, got, "shape %d", i+1)
	}
}

func TestTimeSeriesAliasesAndOrdering(t *testing.T) {
	shapes := []string{
		`{"analytics": {"time_series": [{"date": "2024-03-02", "revenue": 20, "orders": 2}, {"date": "2024-03-01", "revenue": 10, "orders": 1}]}}`,
		`{"analytics": {"timeSeries": [{"day": "2024-03-02T00:00:00Z", "total_revenue": "20", "order_count": 2}, {"day": "2024-03-01", "revenue": 10, "orders": 1}]}}`,
		`{"daily": [{"period": "2024-03-01", "revenue": 10, "orders": "1"}, {"bucket": "2024-03-02", "revenue": 20.0, "orders": 2}, {"revenue": 99}]}`,
	}

	for i, raw := range shapes {
		points := TimeSeries(decode(t, raw))
		require.Len(t, points, 2, "shape %d", i)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), points[0].Date)
		assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), points[1].Date)
		assert.True(t, decimal.NewFromInt(20).Equal(points[1].Revenue), "shape %d", i)
		assert.Equal(t, 1, points[0].Orders)
		assert.Equal(t, 0, points[0].Views)
	}
}

func TestCoercionDistinguishesRatesFromCounts(t *testing.T) {
	assert.Equal(t, 0, Count(nil))
	assert.Equal(t, 0, Count("n/a"))
	assert.Equal(t, 0, Count(true))
	assert.Equal(t, 7, Count(json.Number("7")))
	assert.Equal(t, 7, Count("7"))
	assert.Equal(t, math.MaxInt, Count(json.Number("1e300")))
	assert.Equal(t, math.MinInt, Count(-1e300))

	assert.Nil(t, Rate(nil))
	assert.Nil(t, Rate("n/a"))
	assert.Nil(t, Rate(""))
	require.NotNil(t, Rate(0))
	assert.Equal(t, 0.0, *Rate(0))
	assert.InDelta(t, 3.5, *Rate("3.5%"), 1e-9)

	assert.True(t, Money("19.99").Equal(decimal.RequireFromString("19.99")))
	assert.True(t, Money(json.Number("0.1")).Equal(decimal.RequireFromString("0.1")))
	assert.True(t, Money(nil).IsZero())
	assert.True(t, Money("abc").IsZero())

	_, ok := Date("not a date")
	assert.False(t, ok)
	_, ok = Date(20240301)
	assert.False(t, ok)
}

func TestNormalizeEmptyAndFailedDomains(t *testing.T) {
	m := Normalize([]insights.SourceOutcome{
		{Domain: insights.DomainSales, Status: insights.StatusEmpty},
		{Domain: insights.DomainTraffic, Status: insights.StatusFailed, Error: &insights.ErrorInfo{Message: "x"}},
		{Domain: insights.DomainProductViews, Status: insights.StatusOK, Payload: insights.RawPayload{"unexpected": 1}},
	})

	require.NotNil(t, m.Sales)
	assert.True(t, m.Sales.TotalRevenue.IsZero())
	assert.Nil(t, m.Sales.GrowthRatePercent)
	assert.NotNil(t, m.SalesSeries)
	assert.Empty(t, m.SalesSeries)

	assert.Nil(t, m.Traffic)
	assert.Nil(t, m.TrafficSeries)

	assert.NotNil(t, m.ProductViews)
	assert.Empty(t, m.ProductViews)

	assert.Nil(t, m.Predictions, "not requested")
	assert.False(t, m.HasAnyData())
}

func TestNormalizeSalesPreferredOverSummary(t *testing.T) {
	m := Normalize([]insights.SourceOutcome{
		{Domain: insights.DomainSalesSummary, Status: insights.StatusOK, Payload: insights.RawPayload{"summary": map[string]interface{}{"total_orders": json.Number("1")}}},
		{Domain: insights.DomainSales, Status: insights.StatusOK, Payload: insights.RawPayload{"overview": map[string]interface{}{"total_orders": json.Number("9")}}},
	})
	require.NotNil(t, m.Sales)
	assert.Equal(t, 9, m.Sales.TotalOrders)

	m = Normalize([]insights.SourceOutcome{
		{Domain: insights.DomainSales, Status: insights.StatusFailed},
		{Domain: insights.DomainSalesSummary, Status: insights.StatusOK, Payload: insights.RawPayload{"summary": map[string]interface{}{"total_orders": json.Number("1")}}},
	})
	require.NotNil(t, m.Sales)
	assert.Equal(t, 1, m.Sales.TotalOrders)
}

func fullOutcomes() []insights.SourceOutcome {
	n := func(s string) json.Number { return json.Number(s) }
	return []insights.SourceOutcome{
		{Domain: insights.DomainSales, Status: insights.StatusOK, Payload: insights.RawPayload{
			"overview":    map[string]interface{}{"total_revenue": n("900"), "total_orders": n("9")},
			"time_series": []interface{}{map[string]interface{}{"date": "2024-01-01", "revenue": n("900")}},
		}},
		{Domain: insights.DomainTraffic, Status: insights.StatusOK, Payload: insights.RawPayload{
			"overview":         map[string]interface{}{"total_views": n("300")},
			"conversion_rates": map[string]interface{}{"purchase_conversion": n("3")},
		}},
		{Domain: insights.DomainProductViews, Status: insights.StatusOK, Payload: insights.RawPayload{
			"products": []interface{}{map[string]interface{}{"product_id": "p1", "name": "Mug", "views": n("40")}},
		}},
		{Domain: insights.DomainPredictions, Status: insights.StatusOK, Payload: insights.RawPayload{
			"predictions": map[string]interface{}{"predicted_revenue": n("1000"), "confidence": n("0.8")},
		}},
		{Domain: insights.DomainPromotions, Status: insights.StatusOK, Payload: insights.RawPayload{
			"items": []interface{}{map[string]interface{}{"title": "Spring sale", "discount_percent": n("10")}},
		}},
		{Domain: insights.DomainPricing, Status: insights.StatusOK, Payload: insights.RawPayload{
			"strategy": map[string]interface{}{"recommendations": []interface{}{
				map[string]interface{}{"product_id": "p1", "current_price": "10.00", "suggested_price": "12.50"},
			}},
		}},
	}
}

func TestNormalizeIsolationAcrossFailureSubsets(t *testing.T) {
	base := Normalize(fullOutcomes())
	domains := len(fullOutcomes())

	for mask := 0; mask < 1<<domains; mask++ {
		outcomes := fullOutcomes()
		for i := range outcomes {
			if mask&(1<<i) != 0 {
				outcomes[i] = insights.SourceOutcome{Domain: outcomes[i].Domain, Status: insights.StatusFailed}
			}
		}
		// Reverse to show position does not matter.
		for i, j := 0, len(outcomes)-1; i < j; i, j = i+1, j-1 {
			outcomes[i], outcomes[j] = outcomes[j], outcomes[i]
		}

		got := Normalize(outcomes)
		t.Run(fmt.Sprintf("mask=%06b", mask), func(t *testing.T) {
			check := func(bit int, omitted bool, equal func() bool) {
				if mask&(1<<bit) != 0 {
					assert.True(t, omitted, "domain %d should be omitted", bit)
					return
				}
				assert.True(t, equal(), "domain %d differs from full run", bit)
			}
			check(0, got.Sales == nil && got.SalesSeries == nil, func() bool {
				return assert.ObjectsAreEqual(base.Sales, got.Sales) && assert.ObjectsAreEqual(base.SalesSeries, got.SalesSeries)
			})
			check(1, got.Traffic == nil, func() bool { return assert.ObjectsAreEqual(base.Traffic, got.Traffic) })
			check(2, got.ProductViews == nil, func() bool { return assert.ObjectsAreEqual(base.ProductViews, got.ProductViews) })
			check(3, got.Predictions == nil, func() bool { return assert.ObjectsAreEqual(base.Predictions, got.Predictions) })
			check(4, got.Promotions == nil, func() bool { return assert.ObjectsAreEqual(base.Promotions, got.Promotions) })
			check(5, got.Pricing == nil, func() bool { return assert.ObjectsAreEqual(base.Pricing, got.Pricing) })
		})
	}
}

func TestNormalizeAllFailed(t *testing.T) {
	outcomes := fullOutcomes()
	for i := range outcomes {
		outcomes[i] = insights.SourceOutcome{Domain: outcomes[i].Domain, Status: insights.StatusFailed}
	}
	m := Normalize(outcomes)
	assert.Equal(t, &insights.Model{}, m)
	assert.False(t, m.HasAnyData())
}

func TestInventoryAndLowStock(t *testing.T) {
	inv := Inventory(decode(t, `{"summary": {"total_products": 12, "low_stock_count": 2, "out_of_stock": "1"}}`))
	require.NotNil(t, inv)
	assert.Equal(t, insights.InventorySummary{TotalProducts: 12, LowStockCount: 2, OutOfStockCount: 1}, *inv)

	low := LowStock(decode(t, `{"low_stock_products": [{"id": 7, "name": "Tea", "stock": 0, "threshold": 5}]}`))
	require.Len(t, low, 1)
	assert.Equal(t, insights.LowStockProduct{ProductID: "7", ProductName: "Tea", CurrentStock: 0, LowStockThreshold: 5}, low[0])
}
