package metrics

import (
	"net/http"
	"time"
)

// MetricsCollector defines the interface for collecting service metrics
type MetricsCollector interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
	RecordSourceOutcome(domain, status string, duration time.Duration)
	RecordCycle(view, result string, duration time.Duration, insights int)
	RecordReportBuild(reportType, status string, duration time.Duration)
	RecordExport(reportType string, compressed bool, bytes int)
	Handler() http.Handler
}

// MetricsConfig contains configuration for metrics collection
type MetricsConfig struct {
	Enabled bool
	Prefix  string
}

// Cycle results.
const (
	CycleCommitted = "committed"
	CycleStale     = "stale"
)
