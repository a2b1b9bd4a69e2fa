// Package synth turns derived metrics into ranked, human-readable insights.
package synth

import (
	"math"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/derive"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Insight titles. Callers and tests match on these.
const (
	TitleRevenueUp          = "Revenue trending up"
	TitleSalesSlowdown      = "Sales slowdown"
	TitleHealthyConversion  = "Healthy conversion rate"
	TitleBoostConversion    = "Boost checkout conversion"
	TitleBestRevenueDay     = "Best sales day"
	TitleBestTrafficDay     = "Peak traffic day"
	TitleViewsNotConverting = "Views not converting"
	TitleAnalyticsReady     = "Analytics ready"
)

// DefaultDisplayLimit is how many insights a dashboard shows.
const DefaultDisplayLimit = 3

const dayLayout = "Mon, Jan 2"

type rule func(m *insights.Model, d insights.DerivedMetrics, p *message.Printer) (insights.Insight, bool)

// rules fire in this order; the fallback is handled separately.
var rules = []rule{
	growthRule,
	conversionRule,
	bestRevenueDayRule,
	bestTrafficDayRule,
	viewsNotConvertingRule,
}

// Synthesize evaluates every rule in order and returns all insights that fire,
// ranked from 1. The result is never truncated; use Top for display.
func Synthesize(m *insights.Model, d insights.DerivedMetrics) []insights.Insight {
	p := message.NewPrinter(language.English)
	out := make([]insights.Insight, 0, len(rules))

	if m == nil {
		m = &insights.Model{}
	}
	for _, r := range rules {
		if in, ok := r(m, d, p); ok {
			out = append(out, in)
		}
	}
	if len(out) == 0 && m.HasAnyData() {
		out = append(out, insights.Insight{
			Title:  TitleAnalyticsReady,
			Detail: "Your store data is in. Insights will appear here as trends develop.",
			Tone:   insights.ToneInfo,
		})
	}

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Top returns the first n insights. n <= 0 returns all of them.
func Top(list []insights.Insight, n int) []insights.Insight {
	if n <= 0 || n >= len(list) {
		return list
	}
	return list[:n]
}

func growthRule(_ *insights.Model, d insights.DerivedMetrics, p *message.Printer) (insights.Insight, bool) {
	switch derive.ClassifyGrowth(d.GrowthRatePercent) {
	case derive.GrowthUp:
		return insights.Insight{
			Title:  TitleRevenueUp,
			Detail: p.Sprintf("Revenue is up %.1f%% compared with the previous period.", *d.GrowthRatePercent),
			Tone:   insights.TonePositive,
		}, true
	case derive.GrowthDown:
		return insights.Insight{
			Title:  TitleSalesSlowdown,
			Detail: p.Sprintf("Revenue is down %.1f%% compared with the previous period. A promotion could help re-engage customers.", math.Abs(*d.GrowthRatePercent)),
			Tone:   insights.ToneWarning,
		}, true
	}
	return insights.Insight{}, false
}

func conversionRule(_ *insights.Model, d insights.DerivedMetrics, p *message.Printer) (insights.Insight, bool) {
	if d.EffectiveConversion == nil {
		return insights.Insight{}, false
	}
	rate := *d.EffectiveConversion
	if derive.HealthyConversion(rate) {
		return insights.Insight{
			Title:  TitleHealthyConversion,
			Detail: p.Sprintf("%.1f%% of visitors complete a purchase.", rate),
			Tone:   insights.TonePositive,
		}, true
	}
	return insights.Insight{
		Title:  TitleBoostConversion,
		Detail: p.Sprintf("Only %.1f%% of visitors complete a purchase. Simplify checkout or add an incentive.", rate),
		Tone:   insights.ToneWarning,
	}, true
}

func bestRevenueDayRule(_ *insights.Model, d insights.DerivedMetrics, p *message.Printer) (insights.Insight, bool) {
	best := d.BestRevenueDay
	if best == nil || !best.Revenue.IsPositive() {
		return insights.Insight{}, false
	}
	revenue, _ := best.Revenue.Float64()
	return insights.Insight{
		Title:  TitleBestRevenueDay,
		Detail: p.Sprintf("%s brought in %.2f in revenue across %d orders.", best.Date.Format(dayLayout), revenue, best.Orders),
		Tone:   insights.ToneInfo,
	}, true
}

func bestTrafficDayRule(_ *insights.Model, d insights.DerivedMetrics, p *message.Printer) (insights.Insight, bool) {
	best := d.BestTrafficDay
	if best == nil || best.Views == 0 {
		return insights.Insight{}, false
	}
	return insights.Insight{
		Title:  TitleBestTrafficDay,
		Detail: p.Sprintf("%s had %d views from %d visitors.", best.Date.Format(dayLayout), best.Views, best.UniqueVisitors),
		Tone:   insights.ToneInfo,
	}, true
}

func viewsNotConvertingRule(m *insights.Model, _ insights.DerivedMetrics, p *message.Printer) (insights.Insight, bool) {
	if m.Traffic == nil {
		return insights.Insight{}, false
	}
	views := m.Traffic.EventCounts[derive.EventProductView]
	if views <= 0 || m.Traffic.EventCounts[derive.EventAddToCart] != 0 {
		return insights.Insight{}, false
	}
	return insights.Insight{
		Title:  TitleViewsNotConverting,
		Detail: p.Sprintf("Products were viewed %d times but never added to a cart. Check pricing and product photos.", views),
		Tone:   insights.ToneWarning,
	}, true
}
