package synth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/derive"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/normalize"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func titles(list []insights.Insight) []string {
	out := make([]string, len(list))
	for i, in := range list {
		out[i] = in.Title
	}
	return out
}

func run(m *insights.Model) []insights.Insight {
	return Synthesize(m, derive.Compute(m))
}

func TestGrowthBoundary(t *testing.T) {
	for _, tt := range []struct {
		rate float64
		want []string
	}{
		{5.0, nil},
		{-5.0, nil},
		{5.01, []string{TitleRevenueUp}},
		{-5.01, []string{TitleSalesSlowdown}},
	} {
		got := Synthesize(&insights.Model{}, insights.DerivedMetrics{GrowthRatePercent: f(tt.rate)})
		if tt.want == nil {
			assert.Empty(t, got, "rate %v", tt.rate)
			continue
		}
		assert.Equal(t, tt.want, titles(got), "rate %v", tt.rate)
	}
}

func TestConversionBoundary(t *testing.T) {
	got := Synthesize(&insights.Model{}, insights.DerivedMetrics{EffectiveConversion: f(3.0)})
	require.Len(t, got, 1)
	assert.Equal(t, TitleHealthyConversion, got[0].Title)
	assert.Equal(t, insights.TonePositive, got[0].Tone)

	got = Synthesize(&insights.Model{}, insights.DerivedMetrics{EffectiveConversion: f(2.99)})
	require.Len(t, got, 1)
	assert.Equal(t, TitleBoostConversion, got[0].Title)
	assert.Equal(t, insights.ToneWarning, got[0].Tone)
}

func TestScenarioGrowthAndLowConversion(t *testing.T) {
	m := normalize.Normalize([]insights.SourceOutcome{
		{Domain: insights.DomainSalesSummary, Status: insights.StatusOK, Payload: insights.RawPayload{
			"total_revenue": json.Number("10000"), "total_orders": json.Number("40"), "growth_rate": json.Number("6.2"),
		}},
		{Domain: insights.DomainTraffic, Status: insights.StatusOK, Payload: insights.RawPayload{
			"overview":         map[string]interface{}{"total_views": json.Number("500")},
			"conversion_rates": map[string]interface{}{"purchase_conversion": json.Number("2.5")},
		}},
	})

	got := run(m)
	assert.Equal(t, []string{TitleRevenueUp, TitleBoostConversion}, titles(got))
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 2, got[1].Rank)
	assert.Contains(t, got[0].Detail, "6.2%")
	assert.Contains(t, got[1].Detail, "2.5%")
}

func TestScenarioEverythingFailed(t *testing.T) {
	domains := []insights.Domain{
		insights.DomainSales, insights.DomainTraffic, insights.DomainProductViews,
		insights.DomainPredictions, insights.DomainPromotions, insights.DomainPricing,
	}
	outcomes := make([]insights.SourceOutcome, len(domains))
	for i, d := range domains {
		outcomes[i] = insights.SourceOutcome{Domain: d, Status: insights.StatusFailed, Error: &insights.ErrorInfo{Message: "rejected"}}
	}

	m := normalize.Normalize(outcomes)
	assert.Nil(t, m.Sales)
	assert.Nil(t, m.Traffic)
	assert.False(t, m.HasAnyData())
	assert.Empty(t, run(m))
}

func TestBestDaysAndViewsNotConverting(t *testing.T) {
	d1 := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	m := &insights.Model{
		Sales:       &insights.NormalizedSalesSummary{GrowthRatePercent: f(0)},
		SalesSeries: []insights.TimeSeriesPoint{
			{Date: d1, Revenue: decimal.NewFromInt(1234), Orders: 3},
			{Date: d2, Revenue: decimal.NewFromInt(100), Orders: 1},
		},
		TrafficSeries: []insights.TimeSeriesPoint{
			{Date: d1, Views: 10},
			{Date: d2, Views: 2500, UniqueVisitors: 900},
		},
		Traffic: &insights.NormalizedTrafficSummary{EventCounts: map[string]int{"product_view": 1500}},
	}

	got := run(m)
	assert.Equal(t, []string{TitleBestRevenueDay, TitleBestTrafficDay, TitleViewsNotConverting}, titles(got))
	assert.Contains(t, got[0].Detail, "Mon, May 6")
	assert.Contains(t, got[0].Detail, "1,234.00")
	assert.Contains(t, got[1].Detail, "2,500 views")
	assert.Contains(t, got[2].Detail, "1,500 times")
}

func TestBestTrafficDayNeedsViews(t *testing.T) {
	got := Synthesize(&insights.Model{}, insights.DerivedMetrics{
		BestTrafficDay: &insights.TimeSeriesPoint{Date: time.Now()},
	})
	assert.Empty(t, got)
}

func TestBestRevenueDayNeedsRevenue(t *testing.T) {
	got := Synthesize(&insights.Model{}, insights.DerivedMetrics{
		BestRevenueDay: &insights.TimeSeriesPoint{Date: time.Now(), Revenue: decimal.Zero},
	})
	assert.Empty(t, got)

	got = Synthesize(&insights.Model{}, insights.DerivedMetrics{
		BestRevenueDay: &insights.TimeSeriesPoint{Date: time.Now(), Revenue: decimal.RequireFromString("0.01"), Orders: 1},
	})
	assert.Equal(t, []string{TitleBestRevenueDay}, titles(got))
}

func TestViewsNotConvertingNeedsZeroAddToCart(t *testing.T) {
	m := &insights.Model{Traffic: &insights.NormalizedTrafficSummary{EventCounts: map[string]int{
		"product_view": 10, "add_to_cart": 1,
	}}}
	assert.NotContains(t, titles(Synthesize(m, insights.DerivedMetrics{})), TitleViewsNotConverting)
}

func TestFallbackOnlyWhenDataExists(t *testing.T) {
	m := &insights.Model{Sales: &insights.NormalizedSalesSummary{TotalOrders: 2}}
	got := Synthesize(m, insights.DerivedMetrics{})
	require.Len(t, got, 1)
	assert.Equal(t, TitleAnalyticsReady, got[0].Title)
	assert.Equal(t, 1, got[0].Rank)

	assert.Empty(t, Synthesize(&insights.Model{Sales: &insights.NormalizedSalesSummary{}}, insights.DerivedMetrics{}))

	m.Sales.GrowthRatePercent = f(20)
	assert.Equal(t, []string{TitleRevenueUp}, titles(run(m)))
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	m := &insights.Model{Sales: &insights.NormalizedSalesSummary{GrowthRatePercent: f(-9), ConversionRatePercent: f(4)}}
	assert.Equal(t, run(m), run(m))
}

func TestTop(t *testing.T) {
	list := []insights.Insight{{Rank: 1}, {Rank: 2}, {Rank: 3}, {Rank: 4}}
	assert.Len(t, Top(list, DefaultDisplayLimit), 3)
	assert.Len(t, Top(list, 10), 4)
	assert.Len(t, Top(list, 0), 4)
}
