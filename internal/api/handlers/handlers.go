package handlers

import (
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/config"
	"github.com/frostdev-ops/merchant-insights/internal/core/dashboard"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/gateway"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/reports"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/tracking"
	"github.com/frostdev-ops/merchant-insights/internal/core/metrics"
	"github.com/sirupsen/logrus"
)

// Dependencies are the services the handlers call into.
type Dependencies struct {
	Dashboard *dashboard.Service
	Reports   *reports.Builder
	Resolver  gateway.StoreResolver
	Tracker   *tracking.Dispatcher
	Metrics   metrics.MetricsCollector
	Health    *metrics.HealthChecker
}

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	cfg       *config.Config
	log       *logrus.Logger
	dashboard *dashboard.Service
	builder   *reports.Builder
	panels    *reports.Panels
	resolver  gateway.StoreResolver
	tracker   *tracking.Dispatcher
	metrics   metrics.MetricsCollector
	health    *metrics.HealthChecker
	started   time.Time
	now       func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(cfg *config.Config, deps Dependencies, logger *logrus.Logger) *Handlers {
	return &Handlers{
		cfg:       cfg,
		log:       logger,
		dashboard: deps.Dashboard,
		builder:   deps.Reports,
		panels:    reports.NewPanels(),
		resolver:  deps.Resolver,
		tracker:   deps.Tracker,
		metrics:   deps.Metrics,
		health:    deps.Health,
		started:   time.Now(),
		now:       time.Now,
	}
}
