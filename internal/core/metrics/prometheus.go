package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements MetricsCollector using Prometheus metrics
type PrometheusCollector struct {
	config   *MetricsConfig
	gatherer prometheus.Gatherer

	// HTTP Metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Source Metrics
	sourceFetches       *prometheus.CounterVec
	sourceFetchDuration *prometheus.HistogramVec

	// Cycle Metrics
	cyclesTotal      *prometheus.CounterVec
	cycleDuration    *prometheus.HistogramVec
	insightsProduced *prometheus.GaugeVec

	// Report Metrics
	reportBuilds        *prometheus.CounterVec
	reportBuildDuration *prometheus.HistogramVec
	reportExports       *prometheus.CounterVec
	reportExportBytes   *prometheus.HistogramVec
}

// NewPrometheusCollector creates a collector registered on reg. A nil reg uses
// the default Prometheus registry.
func NewPrometheusCollector(config *MetricsConfig, reg *prometheus.Registry) *PrometheusCollector {
	if config == nil {
		config = &MetricsConfig{
			Enabled: true,
			Prefix:  "merchant_insights",
		}
	}

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	factory := promauto.With(registerer)
	prefix := config.Prefix

	collector := &PrometheusCollector{
		config:   config,
		gatherer: gatherer,
	}

	// Initialize HTTP metrics
	collector.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	collector.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Initialize source metrics
	collector.sourceFetches = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_source_fetches_total",
			Help: "Upstream analytics source fetches by domain and settled status",
		},
		[]string{"domain", "status"},
	)

	collector.sourceFetchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_source_fetch_duration_seconds",
			Help:    "Upstream analytics source latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"domain"},
	)

	// Initialize cycle metrics
	collector.cyclesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_collection_cycles_total",
			Help: "Collection cycles by view and result",
		},
		[]string{"view", "result"},
	)

	collector.cycleDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_collection_cycle_duration_seconds",
			Help:    "Time from cycle start until every source settled",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"view"},
	)

	collector.insightsProduced = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_insights_last_cycle",
			Help: "Number of insights produced by the last committed cycle",
		},
		[]string{"view"},
	)

	// Initialize report metrics
	collector.reportBuilds = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_report_builds_total",
			Help: "Report builds by type and status",
		},
		[]string{"type", "status"},
	)

	collector.reportBuildDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_report_build_duration_seconds",
			Help:    "Report build duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	collector.reportExports = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_report_exports_total",
			Help: "CSV exports by report type",
		},
		[]string{"type", "compressed"},
	)

	collector.reportExportBytes = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_report_export_bytes",
			Help:    "Size of CSV exports in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"type"},
	)

	return collector
}

// RecordHTTPRequest records HTTP request metrics
func (pc *PrometheusCollector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if !pc.config.Enabled {
		return
	}
	pc.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	pc.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSourceOutcome records one settled upstream fetch
func (pc *PrometheusCollector) RecordSourceOutcome(domain, status string, duration time.Duration) {
	if !pc.config.Enabled {
		return
	}
	pc.sourceFetches.WithLabelValues(domain, status).Inc()
	pc.sourceFetchDuration.WithLabelValues(domain).Observe(duration.Seconds())
}

// RecordCycle records a finished collection cycle
func (pc *PrometheusCollector) RecordCycle(view, result string, duration time.Duration, insights int) {
	if !pc.config.Enabled {
		return
	}
	pc.cyclesTotal.WithLabelValues(view, result).Inc()
	pc.cycleDuration.WithLabelValues(view).Observe(duration.Seconds())
	if result == CycleCommitted {
		pc.insightsProduced.WithLabelValues(view).Set(float64(insights))
	}
}

// RecordReportBuild records a report build
func (pc *PrometheusCollector) RecordReportBuild(reportType, status string, duration time.Duration) {
	if !pc.config.Enabled {
		return
	}
	pc.reportBuilds.WithLabelValues(reportType, status).Inc()
	pc.reportBuildDuration.WithLabelValues(reportType).Observe(duration.Seconds())
}

// RecordExport records a CSV export
func (pc *PrometheusCollector) RecordExport(reportType string, compressed bool, bytes int) {
	if !pc.config.Enabled {
		return
	}
	pc.reportExports.WithLabelValues(reportType, strconv.FormatBool(compressed)).Inc()
	pc.reportExportBytes.WithLabelValues(reportType).Observe(float64(bytes))
}

// Handler serves the collected metrics in the Prometheus exposition format
func (pc *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(pc.gatherer, promhttp.HandlerOpts{})
}
