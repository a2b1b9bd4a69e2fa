package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frostdev-ops/merchant-insights/internal/api"
	"github.com/frostdev-ops/merchant-insights/internal/api/handlers"
	"github.com/frostdev-ops/merchant-insights/internal/config"
	"github.com/frostdev-ops/merchant-insights/internal/core/dashboard"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/collector"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/gateway"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/reports"
	"github.com/frostdev-ops/merchant-insights/internal/core/insights/tracking"
	"github.com/frostdev-ops/merchant-insights/internal/core/metrics"
	"github.com/frostdev-ops/merchant-insights/pkg/logger"
	"github.com/frostdev-ops/merchant-insights/pkg/version"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		BatchSize: cfg.Logging.BatchSize,
	})
	log.WithField("version", version.GetFullVersion()).Info("Starting merchant insights service")

	upstream, err := gateway.NewHTTPGateway(gateway.Options{
		BaseURL: cfg.Upstream.BaseURL,
		Token:   cfg.Upstream.Token,
		Timeout: cfg.Upstream.Timeout,
	}, log.Logger)
	if err != nil {
		log.Fatal("Failed to create upstream gateway: ", err)
	}

	collectorMetrics := metrics.NewPrometheusCollector(&metrics.MetricsConfig{
		Enabled: cfg.Monitoring.Prometheus.Enabled,
		Prefix:  cfg.Monitoring.Prometheus.Prefix,
	}, nil)

	sourceHealth := metrics.NewSourceHealth(collectorMetrics)

	tracker := tracking.NewDispatcher(upstream, tracking.Options{
		Enabled: cfg.Tracking.Enabled,
		Timeout: cfg.Tracking.Timeout,
	}, log.Logger)

	health := metrics.NewHealthChecker(2 * time.Second)
	health.Register("upstream", sourceHealth.Check)
	health.Register("tracking", tracker.HealthCheck)

	deps := handlers.Dependencies{
		Dashboard: dashboard.NewService(
			collector.New(upstream, sourceHealth, log.Logger),
			collectorMetrics,
			dashboard.Options{
				DisplayLimit:      cfg.Insights.DisplayLimit,
				ProductViewsLimit: cfg.Insights.ProductViewsLimit,
			},
			log.Logger,
		),
		Reports:  reports.NewBuilder(upstream, collectorMetrics, log.Logger),
		Resolver: upstream,
		Tracker:  tracker,
		Metrics:  collectorMetrics,
		Health:   health,
	}

	router := api.NewRouter(cfg, deps, tracking.NewSessionStore(), log)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Let queued tracking events finish; each one is bounded by its own timeout
	tracker.Wait()
	log.FlushPending()

	log.Info("Server exited")
}
