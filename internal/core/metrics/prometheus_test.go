package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *PrometheusCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestPrometheusCollectorRecords(t *testing.T) {
	c := NewPrometheusCollector(&MetricsConfig{Enabled: true, Prefix: "test"}, prometheus.NewRegistry())

	c.RecordSourceOutcome("sales", "ok", 120*time.Millisecond)
	c.RecordSourceOutcome("sales", "failed", time.Second)
	c.RecordSourceOutcome("sales", "failed", time.Second)
	c.RecordCycle("analytics", CycleCommitted, time.Second, 2)
	c.RecordCycle("analytics", CycleStale, time.Second, 5)
	c.RecordReportBuild("orders", "ok", 50*time.Millisecond)
	c.RecordExport("orders", true, 2048)
	c.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)

	body := scrape(t, c)
	assert.Contains(t, body, `test_source_fetches_total{domain="sales",status="ok"} 1`)
	assert.Contains(t, body, `test_source_fetches_total{domain="sales",status="failed"} 2`)
	assert.Contains(t, body, `test_collection_cycles_total{result="stale",view="analytics"} 1`)
	assert.Contains(t, body, `test_insights_last_cycle{view="analytics"} 2`, "stale cycles do not overwrite")
	assert.Contains(t, body, `test_report_builds_total{status="ok",type="orders"} 1`)
	assert.Contains(t, body, `test_report_exports_total{compressed="true",type="orders"} 1`)
	assert.Contains(t, body, `test_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestPrometheusCollectorDisabled(t *testing.T) {
	c := NewPrometheusCollector(&MetricsConfig{Enabled: false, Prefix: "off"}, prometheus.NewRegistry())
	c.RecordSourceOutcome("sales", "ok", time.Second)
	assert.NotContains(t, scrape(t, c), "off_source_fetches_total{")
}
