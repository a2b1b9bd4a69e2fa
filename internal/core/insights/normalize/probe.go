package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Probe is a path into a payload, e.g. {"analytics", "overview"}.
type Probe []string

// Probes is an ordered fallback list. The first probe that resolves wins, so the
// order is part of the contract with older backend envelopes.
type Probes []Probe

// Root matches the payload itself. Used last, for flat envelopes.
var Root = Probe{}

// P builds a probe from a dotted path. An empty path is Root.
func P(path string) Probe {
	if path == "" {
		return Root
	}
	return Probe(strings.Split(path, "."))
}

func (p Probe) String() string {
	if len(p) == 0 {
		return "<root>"
	}
	return strings.Join(p, ".")
}

func (p Probe) resolve(root map[string]interface{}) interface{} {
	var cur interface{} = root
	for _, key := range p {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// Object returns the first probe target that is a JSON object.
func (ps Probes) Object(root map[string]interface{}) (map[string]interface{}, Probe) {
	if root == nil {
		return nil, nil
	}
	for _, p := range ps {
		if m, ok := asMap(p.resolve(root)); ok {
			return m, p
		}
	}
	return nil, nil
}

// List returns the first probe target that is a JSON array.
func (ps Probes) List(root map[string]interface{}) ([]interface{}, Probe) {
	if root == nil {
		return nil, nil
	}
	for _, p := range ps {
		if l, ok := p.resolve(root).([]interface{}); ok {
			return l, p
		}
	}
	return nil, nil
}

// Any returns the first probe target that is an object or an array.
func (ps Probes) Any(root map[string]interface{}) (interface{}, Probe) {
	if root == nil {
		return nil, nil
	}
	for _, p := range ps {
		v := p.resolve(root)
		if _, ok := asMap(v); ok {
			return v, p
		}
		if _, ok := v.([]interface{}); ok {
			return v, p
		}
	}
	return nil, nil
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, m != nil
	}
	return nil, false
}

// field returns the first present, non-null value among the alias keys.
func field(obj map[string]interface{}, aliases ...string) interface{} {
	for _, k := range aliases {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// toFloat accepts numbers and numeric strings. Booleans are not numbers here.
func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case json.Number:
		v = t.String()
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		if s == "" {
			return 0, false
		}
		v = s
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Count coerces a count or sum; anything unusable becomes 0. Values outside the
// int range saturate.
func Count(v interface{}) int {
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	switch {
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

// Float coerces a non-rate float; anything unusable becomes 0.
func Float(v interface{}) float64 {
	f, _ := toFloat(v)
	return f
}

// Rate coerces a rate or percentage; anything unusable becomes nil, since an
// unknown rate is not the same as 0%.
func Rate(v interface{}) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

// Money coerces a currency amount without passing exact decimals through float64.
func Money(v interface{}) decimal.Decimal {
	switch t := v.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d
		}
		return decimal.Zero
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(t)); err == nil {
			return d
		}
		return decimal.Zero
	case decimal.Decimal:
		return t
	}
	f, ok := toFloat(v)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// String coerces to a string; nil becomes "".
func String(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case json.Number:
		return t.String()
	}
	return cast.ToString(v)
}

// Date parses a calendar date and truncates it to UTC midnight.
func Date(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	t, err := cast.ToTimeInDefaultLocationE(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}
