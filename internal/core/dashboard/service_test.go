package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/collector"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/gateway"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/synth"
	"github.com/frostdev-ops/merchant-insights/internal/core/metrics"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("upstream unavailable")

// stubGateway answers from a domain map; missing domains fail. When block is
// set, the first sales summary call waits for its context to be cancelled.
type stubGateway struct {
	envelopes map[insights.Domain]*gateway.Envelope
	block     bool
	started   chan struct{}

	mu    sync.Mutex
	calls int
}

func (s *stubGateway) answer(d insights.Domain) (*gateway.Envelope, error) {
	if env, ok := s.envelopes[d]; ok {
		return env, nil
	}
	return nil, errDown
}

func (s *stubGateway) SalesAnalytics(context.Context, string, gateway.Params) (*gateway.Envelope, error) {
	return s.answer(insights.DomainSales)
}
func (s *stubGateway) TrafficAnalytics(context.Context, string, gateway.Params) (*gateway.Envelope, error) {
	return s.answer(insights.DomainTraffic)
}
func (s *stubGateway) ProductViewAnalytics(context.Context, string, gateway.Params) (*gateway.Envelope, error) {
	return s.answer(insights.DomainProductViews)
}
func (s *stubGateway) SalesSummary(ctx context.Context, _ string, _ gateway.Params) (*gateway.Envelope, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()

	if s.block && first {
		close(s.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.answer(insights.DomainSalesSummary)
}
func (s *stubGateway) SalesPredictions(context.Context, string, gateway.Params) (*gateway.Envelope, error) {
	return s.answer(insights.DomainPredictions)
}
func (s *stubGateway) PromoSuggestions(context.Context, string) (*gateway.Envelope, error) {
	return s.answer(insights.DomainPromotions)
}
func (s *stubGateway) PricingStrategy(context.Context, string) (*gateway.Envelope, error) {
	return s.answer(insights.DomainPricing)
}
func (s *stubGateway) InventorySummary(context.Context, string) (*gateway.Envelope, error) {
	return s.answer(insights.DomainInventory)
}
func (s *stubGateway) LowStockProducts(context.Context, string) (*gateway.Envelope, error) {
	return s.answer(insights.DomainLowStock)
}
func (s *stubGateway) StoreOrders(context.Context, string) (*gateway.Envelope, error) {
	return s.answer(insights.DomainOrders)
}

type cycleRecord struct {
	view, result string
	insights     int
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []cycleRecord
}

func (r *fakeRecorder) RecordCycle(view, result string, _ time.Duration, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, cycleRecord{view, result, n})
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func growthWithWeakConversion() map[insights.Domain]*gateway.Envelope {
	return map[insights.Domain]*gateway.Envelope{
		insights.DomainSalesSummary: {Success: true, Data: insights.RawPayload{
			"total_revenue": json.Number("10000"),
			"total_orders":  json.Number("40"),
			"growth_rate":   json.Number("6.2"),
		}},
		insights.DomainTraffic: {Success: true, Data: insights.RawPayload{
			"overview":         map[string]interface{}{"total_views": json.Number("500")},
			"conversion_rates": map[string]interface{}{"purchase_conversion": json.Number("2.5")},
		}},
	}
}

func newService(g gateway.Gateway, rec CycleRecorder, opts Options) *Service {
	logger := quietLogger()
	return NewService(collector.New(g, nil, logger), rec, opts, logger)
}

func TestOverviewWithPartialFailures(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newService(&stubGateway{envelopes: growthWithWeakConversion()}, rec, Options{})

	snap, err := svc.Refresh(context.Background(), "store-1", ViewOverview, "30d")
	require.NoError(t, err)

	titles := make([]string, len(snap.Insights))
	for i, in := range snap.Insights {
		titles[i] = in.Title
	}
	assert.Equal(t, []string{synth.TitleRevenueUp, synth.TitleBoostConversion}, titles)
	assert.Equal(t, 2, snap.TotalInsights)
	assert.True(t, snap.HasAnyData)
	assert.Equal(t, "30d", snap.Period)

	assert.Equal(t, insights.StatusOK, snap.Sources[insights.DomainSalesSummary].Status)
	assert.Equal(t, insights.StatusFailed, snap.Sources[insights.DomainInventory].Status)
	assert.Equal(t, errDown.Error(), snap.Sources[insights.DomainInventory].Error.Message)
	assert.Equal(t, []insights.Domain{insights.DomainProductViews, insights.DomainInventory}, snap.FailedSources())
	assert.Nil(t, snap.Model.Inventory)

	latest, ok := svc.Latest("store-1", ViewOverview)
	require.True(t, ok)
	assert.Same(t, snap, latest)

	require.Len(t, rec.records, 1)
	assert.Equal(t, cycleRecord{"overview", metrics.CycleCommitted, 2}, rec.records[0])
}

func TestDisplayLimitKeepsTotal(t *testing.T) {
	svc := newService(&stubGateway{envelopes: growthWithWeakConversion()}, nil, Options{DisplayLimit: 1})

	snap, err := svc.Refresh(context.Background(), "store-1", ViewOverview, "7d")
	require.NoError(t, err)
	require.Len(t, snap.Insights, 1)
	assert.Equal(t, synth.TitleRevenueUp, snap.Insights[0].Title)
	assert.Equal(t, 2, snap.TotalInsights)
}

func TestEverySourceFailed(t *testing.T) {
	svc := newService(&stubGateway{}, nil, Options{})

	snap, err := svc.Refresh(context.Background(), "store-1", ViewAnalytics, "30d")
	require.NoError(t, err)
	assert.False(t, snap.HasAnyData)
	assert.Empty(t, snap.Insights)
	assert.Len(t, snap.FailedSources(), len(ViewAnalytics.Domains()))
}

func TestSupersededCycleIsDiscarded(t *testing.T) {
	stub := &stubGateway{envelopes: growthWithWeakConversion(), block: true, started: make(chan struct{})}
	rec := &fakeRecorder{}
	svc := newService(stub, rec, Options{})

	type result struct {
		snap *Snapshot
		err  error
	}
	first := make(chan result, 1)
	go func() {
		snap, err := svc.Refresh(context.Background(), "store-1", ViewOverview, "30d")
		first <- result{snap, err}
	}()

	<-stub.started
	second, err := svc.Refresh(context.Background(), "store-1", ViewOverview, "7d")
	require.NoError(t, err)

	old := <-first
	assert.ErrorIs(t, old.err, collector.ErrStaleCycle)
	assert.Nil(t, old.snap)

	latest, ok := svc.Latest("store-1", ViewOverview)
	require.True(t, ok)
	assert.Same(t, second, latest)
	assert.Equal(t, "7d", latest.Period)

	results := map[string]int{}
	for _, r := range rec.records {
		results[r.result]++
	}
	assert.Equal(t, map[string]int{metrics.CycleCommitted: 1, metrics.CycleStale: 1}, results)
}

func TestUnknownView(t *testing.T) {
	svc := newService(&stubGateway{}, nil, Options{})
	_, err := svc.Refresh(context.Background(), "store-1", View("weekly"), "30d")
	assert.ErrorIs(t, err, ErrUnknownView)
}
