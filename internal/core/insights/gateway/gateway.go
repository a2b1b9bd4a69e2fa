package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
)

// Envelope is the response wrapper every upstream endpoint returns.
type Envelope struct {
	Success bool                `json:"success"`
	Data    insights.RawPayload `json:"data,omitempty"`
	Error   *EnvelopeError      `json:"error,omitempty"`
}

// EnvelopeError is the error member of an envelope.
type EnvelopeError struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Params carries the optional query parameters of an analytics call.
type Params struct {
	Period    string
	StartDate time.Time
	EndDate   time.Time
	GroupBy   string
	Limit     int
}

// Gateway is the set of upstream calls the insights engine consumes. Each call is
// independent; a non-nil error means the call failed.
type Gateway interface {
	SalesAnalytics(ctx context.Context, storeID string, p Params) (*Envelope, error)
	TrafficAnalytics(ctx context.Context, storeID string, p Params) (*Envelope, error)
	ProductViewAnalytics(ctx context.Context, storeID string, p Params) (*Envelope, error)
	SalesSummary(ctx context.Context, storeID string, p Params) (*Envelope, error)
	SalesPredictions(ctx context.Context, storeID string, p Params) (*Envelope, error)
	PromoSuggestions(ctx context.Context, storeID string) (*Envelope, error)
	PricingStrategy(ctx context.Context, storeID string) (*Envelope, error)
	InventorySummary(ctx context.Context, storeID string) (*Envelope, error)
	LowStockProducts(ctx context.Context, storeID string) (*Envelope, error)
	StoreOrders(ctx context.Context, storeID string) (*Envelope, error)
}

// StoreResolver maps a store slug to its identifier.
type StoreResolver interface {
	ResolveStore(ctx context.Context, slug string) (string, error)
}

// EventSink receives fire-and-forget tracking events.
type EventSink interface {
	TrackEvent(ctx context.Context, storeID string, event map[string]interface{}) error
}

// FetchFunc is a single bound upstream call.
type FetchFunc func(ctx context.Context) (*Envelope, error)

// Fetcher binds a domain to the matching gateway call.
func Fetcher(g Gateway, domain insights.Domain, storeID string, p Params) (FetchFunc, error) {
	switch domain {
	case insights.DomainSales:
		return func(ctx context.Context) (*Envelope, error) { return g.SalesAnalytics(ctx, storeID, p) }, nil
	case insights.DomainSalesSummary:
		return func(ctx context.Context) (*Envelope, error) { return g.SalesSummary(ctx, storeID, p) }, nil
	case insights.DomainTraffic:
		return func(ctx context.Context) (*Envelope, error) { return g.TrafficAnalytics(ctx, storeID, p) }, nil
	case insights.DomainProductViews:
		return func(ctx context.Context) (*Envelope, error) { return g.ProductViewAnalytics(ctx, storeID, p) }, nil
	case insights.DomainPredictions:
		return func(ctx context.Context) (*Envelope, error) { return g.SalesPredictions(ctx, storeID, p) }, nil
	case insights.DomainPromotions:
		return func(ctx context.Context) (*Envelope, error) { return g.PromoSuggestions(ctx, storeID) }, nil
	case insights.DomainPricing:
		return func(ctx context.Context) (*Envelope, error) { return g.PricingStrategy(ctx, storeID) }, nil
	case insights.DomainInventory:
		return func(ctx context.Context) (*Envelope, error) { return g.InventorySummary(ctx, storeID) }, nil
	case insights.DomainLowStock:
		return func(ctx context.Context) (*Envelope, error) { return g.LowStockProducts(ctx, storeID) }, nil
	case insights.DomainOrders:
		return func(ctx context.Context) (*Envelope, error) { return g.StoreOrders(ctx, storeID) }, nil
	}
	return nil, fmt.Errorf("unsupported domain %q", domain)
}
