package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/collector"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/derive"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/gateway"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/normalize"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/synth"
	"github.com/frostdev-ops/merchant-insights/internal/core/metrics"
	"github.com/sirupsen/logrus"
)

// ErrUnknownView is returned for a view with no domain set.
var ErrUnknownView = errors.New("unknown dashboard view")

// CycleRecorder observes finished cycles. Implemented by the metrics collector.
type CycleRecorder interface {
	RecordCycle(view, result string, duration time.Duration, insights int)
}

// Options tunes a Service.
type Options struct {
	// DisplayLimit caps Snapshot.Insights. Zero uses synth.DefaultDisplayLimit.
	DisplayLimit      int
	ProductViewsLimit int
}

// Service runs collection cycles for the dashboard views and keeps the latest
// committed snapshot per store and view.
type Service struct {
	collector *collector.Collector
	tracker   *collector.CycleTracker[*Snapshot]
	recorder  CycleRecorder
	opts      Options
	logger    *logrus.Logger
	now       func() time.Time
}

// NewService creates a dashboard service. recorder may be nil.
func NewService(c *collector.Collector, recorder CycleRecorder, opts Options, logger *logrus.Logger) *Service {
	if opts.DisplayLimit == 0 {
		opts.DisplayLimit = synth.DefaultDisplayLimit
	}
	return &Service{
		collector: c,
		tracker:   collector.NewCycleTracker[*Snapshot](),
		recorder:  recorder,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

func cycleKey(storeID string, view View) string {
	return storeID + "/" + string(view)
}

// Refresh runs one collection cycle. When a newer cycle for the same store and
// view begins before this one finishes, the result is discarded and
// collector.ErrStaleCycle is returned.
func (s *Service) Refresh(ctx context.Context, storeID string, view View, period string) (*Snapshot, error) {
	if !view.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}

	start := s.now()
	cycle := s.tracker.Begin(ctx, cycleKey(storeID, view))

	params := gateway.Params{
		Period:  period,
		GroupBy: "day",
		Limit:   s.opts.ProductViewsLimit,
	}
	outcomes := s.collector.Collect(cycle.Context(), storeID, view.Domains(), params)
	snap := s.assemble(storeID, view, period, cycle.ID, outcomes)

	entry := s.logger.WithFields(logrus.Fields{
		"store_id": storeID,
		"view":     view,
		"cycle_id": cycle.ID,
	})

	if err := s.tracker.Commit(cycle, snap); err != nil {
		s.record(view, metrics.CycleStale, start, 0)
		entry.Debug("Discarding superseded collection cycle")
		return nil, err
	}

	s.record(view, metrics.CycleCommitted, start, snap.TotalInsights)
	entry.WithFields(logrus.Fields{
		"insights":       snap.TotalInsights,
		"failed_sources": snap.FailedSources(),
	}).Debug("Collection cycle committed")
	return snap, nil
}

// Latest returns the last committed snapshot for a store and view.
func (s *Service) Latest(storeID string, view View) (*Snapshot, bool) {
	return s.tracker.Latest(cycleKey(storeID, view))
}

func (s *Service) assemble(storeID string, view View, period string, cycleID uint64, outcomes []insights.SourceOutcome) *Snapshot {
	model := normalize.Normalize(outcomes)
	derived := derive.Compute(model)
	all := synth.Synthesize(model, derived)

	sources := make(map[insights.Domain]SourceStatus, len(outcomes))
	for _, o := range outcomes {
		sources[o.Domain] = SourceStatus{Status: o.Status, Error: o.Error}
	}

	return &Snapshot{
		StoreID:       storeID,
		View:          view,
		Period:        period,
		CycleID:       cycleID,
		GeneratedAt:   s.now().UTC(),
		Model:         model,
		Derived:       derived,
		Insights:      synth.Top(all, s.opts.DisplayLimit),
		TotalInsights: len(all),
		HasAnyData:    model.HasAnyData(),
		Sources:       sources,
	}
}

func (s *Service) record(view View, result string, start time.Time, n int) {
	if s.recorder != nil {
		s.recorder.RecordCycle(string(view), result, time.Since(start), n)
	}
}
