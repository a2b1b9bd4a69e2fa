package reports

import (
	"fmt"
	"sync"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
)

// DefaultDisplayRows caps the on-screen orders table. Exports are never capped.
const DefaultDisplayRows = 50

// Display returns a copy of result trimmed for on-screen display. Only the
// orders report is capped.
func Display(result *insights.ReportResult, limit int) *insights.ReportResult {
	if result == nil {
		return nil
	}
	if limit <= 0 {
		limit = DefaultDisplayRows
	}
	out := *result
	if result.Type == insights.ReportOrders && len(result.Rows) > limit {
		out.Rows = result.Rows[:limit]
		out.Note = fmt.Sprintf("Showing the first %d of %d orders. Export the report to see all of them.", limit, len(result.Rows))
	}
	return &out
}

// Panel holds the last successfully built report for one store and report
// type. A failed rebuild leaves the previous result in place.
type Panel struct {
	mu      sync.RWMutex
	last    *insights.ReportResult
	lastErr error
}

// Apply records the outcome of a build and returns the result to show.
func (p *Panel) Apply(result *insights.ReportResult, err error) *insights.ReportResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.lastErr = err
		return p.last
	}
	p.last = result
	p.lastErr = nil
	return result
}

// Last returns the last successful result, if any.
func (p *Panel) Last() *insights.ReportResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Err returns the error of the most recent build, or nil if it succeeded.
func (p *Panel) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Panels keys report panels by store and report type.
type Panels struct {
	mu     sync.Mutex
	panels map[string]*Panel
}

// NewPanels creates an empty panel set.
func NewPanels() *Panels {
	return &Panels{panels: make(map[string]*Panel)}
}

// Get returns the panel for storeID and t, creating it on first use.
func (ps *Panels) Get(storeID string, t insights.ReportType) *Panel {
	key := storeID + "/" + string(t)
	ps.mu.Lock()
	defer ps.mu.Unlock()
	p, ok := ps.panels[key]
	if !ok {
		p = &Panel{}
		ps.panels[key] = p
	}
	return p
}
