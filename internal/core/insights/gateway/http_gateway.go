package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Options configures the HTTP gateway.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// HTTPGateway talks to the store platform's REST API. It performs no retries;
// a failed call is reported once and left to the caller to refresh.
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewHTTPGateway creates a gateway. When a token is configured requests carry it
// as a bearer token through an oauth2 transport.
func NewHTTPGateway(opts Options, logger *logrus.Logger) (*HTTPGateway, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	client := &http.Client{Timeout: opts.Timeout}
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.Token,
			TokenType:   "Bearer",
		}))
		client.Timeout = opts.Timeout
	}

	return &HTTPGateway{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: client,
		logger:     logger,
	}, nil
}

func (g *HTTPGateway) SalesAnalytics(ctx context.Context, storeID string, p Params) (*Envelope, error) {
	return g.get(ctx, storePath(storeID, "analytics/sales"), p.query(true))
}

func (g *HTTPGateway) TrafficAnalytics(ctx context.Context, storeID string, p Params) (*Envelope, error) {
	return g.get(ctx, storePath(storeID, "analytics/traffic"), p.query(false))
}

func (g *HTTPGateway) ProductViewAnalytics(ctx context.Context, storeID string, p Params) (*Envelope, error) {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return g.get(ctx, storePath(storeID, "analytics/product-views"), q)
}

func (g *HTTPGateway) SalesSummary(ctx context.Context, storeID string, p Params) (*Envelope, error) {
	q := url.Values{}
	if p.Period != "" {
		q.Set("period", p.Period)
	}
	return g.get(ctx, storePath(storeID, "analytics/sales-summary"), q)
}

func (g *HTTPGateway) SalesPredictions(ctx context.Context, storeID string, p Params) (*Envelope, error) {
	q := url.Values{}
	if p.Period != "" {
		q.Set("period", p.Period)
	}
	return g.get(ctx, storePath(storeID, "analytics/predictions"), q)
}

func (g *HTTPGateway) PromoSuggestions(ctx context.Context, storeID string) (*Envelope, error) {
	return g.get(ctx, storePath(storeID, "promotions/suggestions"), nil)
}

func (g *HTTPGateway) PricingStrategy(ctx context.Context, storeID string) (*Envelope, error) {
	return g.get(ctx, storePath(storeID, "pricing/strategy"), nil)
}

func (g *HTTPGateway) InventorySummary(ctx context.Context, storeID string) (*Envelope, error) {
	return g.get(ctx, storePath(storeID, "inventory/summary"), nil)
}

func (g *HTTPGateway) LowStockProducts(ctx context.Context, storeID string) (*Envelope, error) {
	return g.get(ctx, storePath(storeID, "inventory/low-stock"), nil)
}

func (g *HTTPGateway) StoreOrders(ctx context.Context, storeID string) (*Envelope, error) {
	return g.get(ctx, storePath(storeID, "orders"), nil)
}

// ResolveStore looks up a store identifier by slug.
func (g *HTTPGateway) ResolveStore(ctx context.Context, slug string) (string, error) {
	env, err := g.get(ctx, "/stores/resolve/"+url.PathEscape(slug), nil)
	if err != nil {
		return "", err
	}
	if !env.Success || env.Data == nil {
		return "", ErrStoreNotFound
	}
	for _, key := range []string{"id", "store_id", "storeId"} {
		if id, ok := env.Data[key]; ok && id != nil {
			if s := fmt.Sprint(id); s != "" {
				return s, nil
			}
		}
	}
	return "", ErrStoreNotFound
}

// TrackEvent posts an analytics event.
func (g *HTTPGateway) TrackEvent(ctx context.Context, storeID string, event map[string]interface{}) error {
	_, err := g.do(ctx, http.MethodPost, storePath(storeID, "analytics/events"), nil, event)
	return err
}

func (p Params) query(withRange bool) url.Values {
	q := url.Values{}
	if withRange && !p.StartDate.IsZero() && !p.EndDate.IsZero() {
		q.Set("start_date", p.StartDate.Format(insights.DateLayout))
		q.Set("end_date", p.EndDate.Format(insights.DateLayout))
	} else if p.Period != "" {
		q.Set("period", p.Period)
	}
	if p.GroupBy != "" {
		q.Set("group_by", p.GroupBy)
	}
	return q
}

func storePath(storeID, suffix string) string {
	return "/stores/" + url.PathEscape(storeID) + "/" + suffix
}

func (g *HTTPGateway) get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return g.do(ctx, http.MethodGet, path, query, nil)
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*Envelope, error) {
	target := g.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, &SourceError{Path: path, Message: "failed to marshal request body: " + err.Error()}
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, &SourceError{Path: path, Message: "failed to create request: " + err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	g.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
	}).Debug("Calling store platform")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &SourceError{Path: path, Message: "HTTP request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SourceError{Path: path, StatusCode: resp.StatusCode, Message: "failed to read response: " + err.Error()}
	}

	env, decodeErr := decodeEnvelope(raw)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &SourceError{Path: path, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && env.Error != nil {
			se.Message = env.Error.Message
			se.Details = env.Error.Details
		}
		return nil, se
	}
	if decodeErr != nil {
		return nil, &SourceError{Path: path, StatusCode: resp.StatusCode, Message: "invalid envelope: " + decodeErr.Error()}
	}
	return env, nil
}

// decodeEnvelope keeps numbers as json.Number so money values are not rounded
// through float64. A list-valued data member is wrapped under "items"; an empty
// list leaves Data nil.
func decodeEnvelope(raw []byte) (*Envelope, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &Envelope{Success: true}, nil
	}

	var wire struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *EnvelopeError  `json:"error"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}

	env := &Envelope{Success: wire.Success, Error: wire.Error}
	if len(wire.Data) == 0 {
		return env, nil
	}

	dec := json.NewDecoder(bytes.NewReader(wire.Data))
	dec.UseNumber()
	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}

	switch v := data.(type) {
	case map[string]interface{}:
		env.Data = v
	case []interface{}:
		if len(v) > 0 {
			env.Data = insights.RawPayload{"items": v}
		}
	}
	return env, nil
}
