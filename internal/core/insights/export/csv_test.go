package export

import (
	"bytes"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/core/insights"
	"github.com/klauspost/compress/gzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersResult() *insights.ReportResult {
	return &insights.ReportResult{
		Type:    insights.ReportOrders,
		Columns: []string{"Order ID", "Date", "Customer", "Status", "Payment Status", "Total Amount", "Items"},
		Rows: []insights.Record{
			{
				"Order ID": "1001", "Date": "2024-03-01 10:00", "Customer": "Smith, Ada",
				"Status": "delivered", "Payment Status": "paid",
				"Total Amount": decimal.RequireFromString("19.9"),
				"Items": []insights.LineItem{{Name: "Mug", Quantity: 2}, {Name: "Tea \"Earl\"", Quantity: 1}},
			},
			{
				"Order ID": "1002", "Date": "2024-03-01 11:00", "Customer": "",
				"Status": "pending", "Payment Status": "pending",
				"Total Amount": decimal.Zero,
				"Items": []insights.LineItem{},
			},
		},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	res := ordersResult()
	data, err := CSV(res)
	require.NoError(t, err)

	table, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, res.Columns, table.Header)
	require.Len(t, table.Rows, len(res.Rows))
	for i, row := range res.Rows {
		assert.Equal(t, row["Order ID"], table.Rows[i][0])
		assert.Equal(t, row["Customer"], table.Rows[i][2])
		assertMoney(t, row["Total Amount"], table.Rows[i][5])
	}
	assert.Equal(t, "Mug (x2); Tea \"Earl\" (x1)", table.Rows[0][6])
	assert.Equal(t, "", table.Rows[1][6])
	assert.Empty(t, table.Summary)
}

func TestCSVSalesKeepsFullPrecision(t *testing.T) {
	res := &insights.ReportResult{
		Type:    insights.ReportSales,
		Columns: []string{"Date", "Revenue", "Orders"},
		Rows: []insights.Record{
			{"Date": "2024-03-01", "Revenue": decimal.RequireFromString("12.345"), "Orders": 3},
			{"Date": "2024-03-02", "Revenue": decimal.RequireFromString("0.0001"), "Orders": 1},
			{"Date": "2024-03-03", "Revenue": decimal.Zero, "Orders": 0},
		},
	}
	data, err := CSV(res)
	require.NoError(t, err)

	table, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, table.Rows, len(res.Rows))
	for i, row := range res.Rows {
		assert.Equal(t, row["Date"], table.Rows[i][0])
		assertMoney(t, row["Revenue"], table.Rows[i][1])
		assert.Equal(t, strconv.Itoa(row["Orders"].(int)), table.Rows[i][2])
	}
	assert.Equal(t, "12.345", table.Rows[0][1])
}

func assertMoney(t *testing.T, want interface{}, cell string) {
	t.Helper()
	got, err := decimal.NewFromString(cell)
	require.NoError(t, err, cell)
	assert.True(t, got.Equal(want.(decimal.Decimal)), "want %s, got %s", want, cell)
}

func TestCSVInventorySummaryBlock(t *testing.T) {
	res := &insights.ReportResult{
		Type:    insights.ReportInventory,
		Columns: []string{"Product ID", "Product Name", "Current Stock", "Low Stock Threshold", "Status"},
		Rows: []insights.Record{
			{"Product ID": "p1", "Product Name": "Mug", "Current Stock": 0, "Low Stock Threshold": 5, "Status": "Out of Stock"},
		},
		Summary: map[string]interface{}{"total_products": 20, "low_stock_count": 0, "out_of_stock_count": 1},
	}
	data, err := CSV(res)
	require.NoError(t, err)

	table, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"p1", "Mug", "0", "5", "Out of Stock"}, table.Rows[0])
	assert.Equal(t, [][]string{
		{"Total Products", "20"},
		{"Total Stock Units", "0"},
		{"Low Stock Items", "0"},
		{"Out of Stock Items", "1"},
	}, table.Summary)
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "42", FormatCell(42))
	assert.Equal(t, "2.5", FormatCell(2.5))
	assert.Equal(t, "1250.5", FormatCell(decimal.RequireFromString("1250.5")))
	assert.Equal(t, "12.345", FormatCell(decimal.RequireFromString("12.345")))
	assert.Equal(t, "2024-03-01", FormatCell(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "true", FormatCell(true))
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 4, 9, 13, 0, 0, 0, time.UTC)
	req := insights.ReportRequest{
		Type: insights.ReportSales,
		DateRange: insights.DateRange{
			Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
	}
	assert.Equal(t, "sales-report-2024-03-01-to-2024-03-31.csv", Filename(req, now))

	req.Type = insights.ReportInventory
	assert.Equal(t, "inventory-report-2024-04-09.csv", Filename(req, now))
}

func TestGzip(t *testing.T) {
	data, err := CSV(ordersResult())
	require.NoError(t, err)

	compressed, err := Gzip(data)
	require.NoError(t, err)

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, data, plain)
}

func TestCSVNilResult(t *testing.T) {
	_, err := CSV(nil)
	assert.Error(t, err)
}
