// Package export serializes report results to CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/klauspost/compress/gzip"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// SummarySentinel is the single-cell row that separates the inventory table
// from its summary block.
const SummarySentinel = "Summary"

// ContentType is the media type of CSV exports.
const ContentType = "text/csv; charset=utf-8"

// inventorySummaryRows lists the summary block of the inventory export, in order.
var inventorySummaryRows = []struct {
	label string
	key   string
}{
	{"Total Products", "total_products"},
	{"Total Stock Units", "total_stock_units"},
	{"Low Stock Items", "low_stock_count"},
	{"Out of Stock Items", "out_of_stock_count"},
}

// CSV renders result with its fixed column set. Every row is exported; display
// caps do not apply here.
func CSV(result *insights.ReportResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("report result cannot be nil")
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(result.Columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i, col := range result.Columns {
			record[i] = FormatCell(row[col])
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	if result.Type == insights.ReportInventory {
		if err := writer.Write([]string{SummarySentinel}); err != nil {
			return nil, fmt.Errorf("failed to write CSV summary: %w", err)
		}
		for _, s := range inventorySummaryRows {
			if err := writer.Write([]string{s.label, FormatCell(orZero(result.Summary[s.key]))}); err != nil {
				return nil, fmt.Errorf("failed to write CSV summary: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func orZero(v interface{}) interface{} {
	if v == nil {
		return 0
	}
	return v
}

// FormatCell renders one value the way it appears in the CSV. Money is written
// at full precision; line items flatten to "name (xN)" joined by "; ".
func FormatCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(insights.DateLayout)
	case []insights.LineItem:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			parts = append(parts, fmt.Sprintf("%s (x%d)", it.Name, it.Quantity))
		}
		return strings.Join(parts, "; ")
	case fmt.Stringer:
		return t.String()
	}
	return cast.ToString(v)
}

// Table is a parsed CSV export.
type Table struct {
	Header  []string
	Rows    [][]string
	Summary [][]string
}

// Parse reads an export produced by CSV. Rows after the summary sentinel are
// returned separately.
func Parse(data []byte) (*Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV has no header")
	}

	t := &Table{Header: records[0], Rows: [][]string{}}
	inSummary := false
	for _, rec := range records[1:] {
		if !inSummary && len(rec) == 1 && rec[0] == SummarySentinel {
			inSummary = true
			continue
		}
		if inSummary {
			t.Summary = append(t.Summary, rec)
		} else {
			t.Rows = append(t.Rows, rec)
		}
	}
	return t, nil
}

// Filename names the download for req. Inventory is a snapshot, so it carries
// today's date instead of a range.
func Filename(req insights.ReportRequest, now time.Time) string {
	if req.Type == insights.ReportInventory {
		return fmt.Sprintf("inventory-report-%s.csv", now.Format(insights.DateLayout))
	}
	return fmt.Sprintf("%s-report-%s-to-%s.csv",
		req.Type,
		req.DateRange.Start.Format(insights.DateLayout),
		req.DateRange.End.Format(insights.DateLayout))
}

// Gzip compresses an export for download.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to compress export: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress export: %w", err)
	}
	return buf.Bytes(), nil
}
