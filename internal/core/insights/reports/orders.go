package reports

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/normalize"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Order is one store order as used by the orders report.
type Order struct {
	ID            string          `mapstructure:"id"`
	CreatedAt     time.Time       `mapstructure:"created_at"`
	CustomerName  string          `mapstructure:"customer_name"`
	Status        string          `mapstructure:"status"`
	PaymentStatus string          `mapstructure:"payment_status"`
	TotalAmount   decimal.Decimal `mapstructure:"total_amount"`
	Items         []OrderItem     `mapstructure:"items"`
}

// OrderItem is one order line.
type OrderItem struct {
	Name        string `mapstructure:"name"`
	ProductName string `mapstructure:"product_name"`
	Quantity    int    `mapstructure:"quantity"`
}

// orderAliases maps legacy order keys onto the decoded field names.
var orderAliases = map[string][]string{
	"id":             {"order_id", "order_number", "orderId"},
	"created_at":     {"createdAt", "order_date", "date"},
	"customer_name":  {"customerName", "customer_email"},
	"payment_status": {"paymentStatus"},
	"total_amount":   {"total", "totalAmount", "amount"},
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
)

// DecodeOrders decodes the upstream order list. Orders that cannot be decoded
// are skipped and counted.
func DecodeOrders(list []interface{}) ([]Order, int) {
	orders := make([]Order, 0, len(list))
	skipped := 0
	for _, item := range list {
		raw, ok := item.(map[string]interface{})
		if !ok {
			skipped++
			continue
		}
		o, err := decodeOrder(raw)
		if err != nil {
			skipped++
			continue
		}
		orders = append(orders, o)
	}
	return orders, skipped
}

func decodeOrder(raw map[string]interface{}) (Order, error) {
	flat := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		flat[k] = v
	}
	for key, aliases := range orderAliases {
		if flat[key] != nil {
			continue
		}
		for _, alias := range aliases {
			if v := flat[alias]; v != nil {
				flat[key] = v
				break
			}
		}
	}
	if flat["customer_name"] == nil {
		switch c := raw["customer"].(type) {
		case string:
			flat["customer_name"] = c
		case map[string]interface{}:
			flat["customer_name"] = firstNonNil(c["name"], c["email"])
		}
	}

	var o Order
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &o,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			decimalHook,
			timeHook,
		),
	})
	if err != nil {
		return Order{}, err
	}
	if err := dec.Decode(flat); err != nil {
		return Order{}, fmt.Errorf("failed to decode order: %w", err)
	}
	for i := range o.Items {
		if o.Items[i].Name == "" {
			o.Items[i].Name = o.Items[i].ProductName
		}
	}
	return o, nil
}

func decimalHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != decimalType {
		return data, nil
	}
	return normalize.Money(data), nil
}

func timeHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != timeType {
		return data, nil
	}
	if data == nil {
		return time.Time{}, nil
	}
	t, err := cast.ToTimeInDefaultLocationE(data, time.UTC)
	if err != nil {
		return time.Time{}, nil
	}
	return t.UTC(), nil
}

func firstNonNil(vals ...interface{}) interface{} {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// OrderPredicate selects orders. Predicates are independent, so the order in
// which they are applied does not change the result.
type OrderPredicate func(Order) bool

// InDateRange keeps orders created from the start of r.Start through the last
// millisecond of r.End.
func InDateRange(r insights.DateRange) OrderPredicate {
	start, end := DayBounds(r)
	return func(o Order) bool {
		return !o.CreatedAt.Before(start) && !o.CreatedAt.After(end)
	}
}

// DayBounds returns 00:00:00.000 of the start date and 23:59:59.999 of the end date, in UTC.
func DayBounds(r insights.DateRange) (time.Time, time.Time) {
	sy, sm, sd := r.Start.Date()
	ey, em, ed := r.End.Date()
	start := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ey, em, ed, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return start, end
}

// WithStatus keeps orders with the given status. Empty or "all" keeps everything.
func WithStatus(status string) OrderPredicate {
	return matchField(status, func(o Order) string { return o.Status })
}

// WithPaymentStatus keeps orders with the given payment status.
func WithPaymentStatus(status string) OrderPredicate {
	return matchField(status, func(o Order) string { return o.PaymentStatus })
}

func matchField(want string, get func(Order) string) OrderPredicate {
	want = strings.TrimSpace(want)
	if want == "" || strings.EqualFold(want, "all") {
		return func(Order) bool { return true }
	}
	return func(o Order) bool { return strings.EqualFold(get(o), want) }
}

// FilterOrders keeps orders matching every predicate.
func FilterOrders(orders []Order, preds ...OrderPredicate) []Order {
	out := make([]Order, 0, len(orders))
next:
	for _, o := range orders {
		for _, p := range preds {
			if !p(o) {
				continue next
			}
		}
		out = append(out, o)
	}
	return out
}

// OrderSummary aggregates a filtered order set.
type OrderSummary struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalOrders       int             `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	ByStatus          map[string]int  `json:"by_status"`
	ByPaymentStatus   map[string]int  `json:"by_payment_status"`
}

// SummarizeOrders aggregates orders. Callers pass the filtered set.
func SummarizeOrders(orders []Order) OrderSummary {
	s := OrderSummary{
		TotalRevenue:    decimal.Zero,
		ByStatus:        make(map[string]int),
		ByPaymentStatus: make(map[string]int),
	}
	for _, o := range orders {
		s.TotalRevenue = s.TotalRevenue.Add(o.TotalAmount)
		s.TotalOrders++
		s.ByStatus[orUnknown(o.Status)]++
		s.ByPaymentStatus[orUnknown(o.PaymentStatus)]++
	}
	if s.TotalOrders > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.TotalOrders)))
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s)
}

// SortOrders orders newest first, then by id for a stable export.
func SortOrders(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
}

func (o Order) lineItems() []insights.LineItem {
	items := make([]insights.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, insights.LineItem{Name: it.Name, Quantity: it.Quantity})
	}
	return items
}
