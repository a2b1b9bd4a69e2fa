package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Insights   InsightsConfig   `mapstructure:"insights"`
	Reports    ReportsConfig    `mapstructure:"reports"`
	Tracking   TrackingConfig   `mapstructure:"tracking"`
	Security   SecurityConfig   `mapstructure:"security"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// UpstreamConfig points at the merchant platform API the analytics are read from.
type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	BatchSize int    `mapstructure:"batch_size"`
}

// InsightsConfig tunes the dashboard views.
type InsightsConfig struct {
	DefaultPeriod     string `mapstructure:"default_period"`
	DisplayLimit      int    `mapstructure:"display_limit"`
	ProductViewsLimit int    `mapstructure:"product_views_limit"`
}

type ReportsConfig struct {
	DisplayRows int `mapstructure:"display_rows"`
}

type TrackingConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Prefix  string `mapstructure:"prefix"`
}

// Load reads config.yaml from ./configs or the working directory, then applies
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	return load(viper.New(), "./configs", ".")
}

// LoadFrom is Load with explicit search paths.
func LoadFrom(paths ...string) (*Config, error) {
	return load(viper.New(), paths...)
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.mode", "GIN_MODE")
	v.BindEnv("upstream.base_url", "UPSTREAM_BASE_URL")
	v.BindEnv("upstream.token", "UPSTREAM_TOKEN")
	v.BindEnv("upstream.timeout", "UPSTREAM_TIMEOUT")
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("tracking.enabled", "TRACKING_ENABLED")
	v.BindEnv("security.allowed_origins", "ALLOWED_ORIGINS")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration for completeness and correctness
func (c *Config) Validate() error {
	var errors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errors = append(errors, "server.port must be between 1 and 65535")
	}
	if c.Server.Host == "" {
		errors = append(errors, "server.host is required")
	}

	if c.Upstream.BaseURL == "" {
		errors = append(errors, "upstream.base_url is required")
	} else if u, err := url.Parse(c.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, "upstream.base_url must be an absolute URL")
	}
	if c.Upstream.Timeout <= 0 {
		errors = append(errors, "upstream.timeout must be greater than 0")
	}

	if c.Insights.DefaultPeriod == "" {
		errors = append(errors, "insights.default_period is required")
	}
	if c.Insights.DisplayLimit < 0 {
		errors = append(errors, "insights.display_limit must be non-negative")
	}
	if c.Reports.DisplayRows <= 0 {
		errors = append(errors, "reports.display_rows must be greater than 0")
	}

	if c.Tracking.Enabled && c.Tracking.Timeout <= 0 {
		errors = append(errors, "tracking.timeout must be greater than 0 when tracking is enabled")
	}

	if c.Monitoring.Prometheus.Enabled && !strings.HasPrefix(c.Monitoring.Prometheus.Path, "/") {
		errors = append(errors, "monitoring.prometheus.path must start with /")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Address is the listen address for the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Upstream defaults
	v.SetDefault("upstream.base_url", "http://localhost:8080/api")
	v.SetDefault("upstream.timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.batch_size", 100)

	// Insight defaults
	v.SetDefault("insights.default_period", "30d")
	v.SetDefault("insights.display_limit", 3)
	v.SetDefault("insights.product_views_limit", 10)

	v.SetDefault("reports.display_rows", 50)

	v.SetDefault("tracking.enabled", true)
	v.SetDefault("tracking.timeout", "5s")

	v.SetDefault("security.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.path", "/metrics")
	v.SetDefault("monitoring.prometheus.prefix", "merchant_insights")
}
