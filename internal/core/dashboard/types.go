package dashboard

import (
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
)

// View is a dashboard screen. Each view collects a fixed set of domains.
type View string

const (
	ViewOverview  View = "overview"
	ViewAnalytics View = "analytics"
)

var viewDomains = map[View][]insights.Domain{
	ViewOverview: {
		insights.DomainSalesSummary,
		insights.DomainTraffic,
		insights.DomainProductViews,
		insights.DomainInventory,
	},
	ViewAnalytics: {
		insights.DomainSales,
		insights.DomainTraffic,
		insights.DomainProductViews,
		insights.DomainPredictions,
		insights.DomainPromotions,
		insights.DomainPricing,
	},
}

// Domains returns the domains collected for v, in request order.
func (v View) Domains() []insights.Domain {
	return append([]insights.Domain(nil), viewDomains[v]...)
}

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	_, ok := viewDomains[v]
	return ok
}

// SourceStatus is how one domain settled in a cycle.
type SourceStatus struct {
	Status insights.Status     `json:"status"`
	Error  *insights.ErrorInfo `json:"error,omitempty"`
}

// Snapshot is the committed result of one collection cycle.
type Snapshot struct {
	StoreID     string                  `json:"store_id"`
	View        View                    `json:"view"`
	Period      string                  `json:"period"`
	CycleID     uint64                  `json:"cycle_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Model       *insights.Model         `json:"model"`
	Derived     insights.DerivedMetrics `json:"derived"`
	Insights    []insights.Insight      `json:"insights"`
	// TotalInsights counts every insight that fired, before the display limit.
	TotalInsights int                              `json:"total_insights"`
	HasAnyData    bool                             `json:"has_any_data"`
	Sources       map[insights.Domain]SourceStatus `json:"sources"`
}

// FailedSources lists the domains that failed in this snapshot, in view order.
func (s *Snapshot) FailedSources() []insights.Domain {
	var failed []insights.Domain
	for _, d := range s.View.Domains() {
		if st, ok := s.Sources[d]; ok && st.Status == insights.StatusFailed {
			failed = append(failed, d)
		}
	}
	return failed
}
