// Package config loads and validates service configuration via Viper.
// Values come from an optional config file plus VIGIA_-prefixed environment
// variables; alert transport credentials in particular are expected from the
// environment and are optional — their absence disables alerting without
// failing the rest of the pipeline.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Products   ProductsConfig   `mapstructure:"products"`
	Indicators IndicatorsConfig `mapstructure:"indicators"`
	Store      StoreConfig      `mapstructure:"store"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Alert      AlertConfig      `mapstructure:"alert"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// FetchConfig governs the HTTP fetcher and the optional headless renderer.
type FetchConfig struct {
	UserAgent      string  `mapstructure:"user_agent"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	Concurrency    int     `mapstructure:"concurrency"`
	PerDomainQPS   float64 `mapstructure:"per_domain_qps"`

	Headless HeadlessConfig `mapstructure:"headless"`
}

// HeadlessConfig configures the headless rendering fallback.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// ProductsConfig names the product listing source and snapshot.
type ProductsConfig struct {
	BaseURL      string   `mapstructure:"base_url"`
	Queries      []string `mapstructure:"queries"`
	SnapshotPath string   `mapstructure:"snapshot_path"`
	HistoryPath  string   `mapstructure:"history_path"`
}

// IndicatorsConfig names the indicator history source and snapshot.
type IndicatorsConfig struct {
	URLTemplate  string   `mapstructure:"url_template"`
	Codes        []string `mapstructure:"codes"`
	SnapshotPath string   `mapstructure:"snapshot_path"`
	HistoryPath  string   `mapstructure:"history_path"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Provider is csv or postgres. Postgres applies to the indicator
	// domain; products always persist to CSV.
	Provider string         `mapstructure:"provider"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig controls access to the relational backend.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ArchiveConfig selects the raw page archive backend.
type ArchiveConfig struct {
	// Provider is noop, local or gcs.
	Provider string `mapstructure:"provider"`
	BaseDir  string `mapstructure:"base_dir"`
	Bucket   string `mapstructure:"gcs_bucket"`
}

// MonitorConfig governs the monitoring cycle. The epsilons are
// domain-specific tolerances, deliberately configurable rather than shared
// constants.
type MonitorConfig struct {
	Window           int     `mapstructure:"window"`
	SMAWindow        int     `mapstructure:"sma_window"`
	MinValues        int     `mapstructure:"min_values"`
	ProductEpsilon   float64 `mapstructure:"product_epsilon"`
	IndicatorEpsilon float64 `mapstructure:"indicator_epsilon"`
	HistoryLimit     int     `mapstructure:"history_limit"`
}

// AlertConfig selects the alert transport. All credential keys are
// optional.
type AlertConfig struct {
	// Provider is smtp, pubsub or noop.
	Provider string       `mapstructure:"provider"`
	SMTP     SMTPConfig   `mapstructure:"smtp"`
	PubSub   PubSubConfig `mapstructure:"pubsub"`
}

// SMTPConfig holds the mail transport credentials.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Sender   string `mapstructure:"sender"`
	Receiver string `mapstructure:"receiver"`
	Password string `mapstructure:"password"`
}

// PubSubConfig holds the Pub/Sub alert topic coordinates.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// Load builds a Config from disk and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VIGIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("fetch.user_agent", "vigia-bot/0.1")
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.concurrency", 1)
	v.SetDefault("fetch.per_domain_qps", 1)
	v.SetDefault("fetch.headless.enabled", false)
	v.SetDefault("fetch.headless.max_parallel", 1)
	v.SetDefault("fetch.headless.nav_timeout_seconds", 25)
	v.SetDefault("products.base_url", "https://listado.mercadolibre.com.co/")
	v.SetDefault("products.queries", []string{"laptop", "celular"})
	v.SetDefault("products.snapshot_path", "data/products.csv")
	v.SetDefault("products.history_path", "data/logs/products_monitor.json")
	v.SetDefault("indicators.url_template", "https://es.finance.yahoo.com/quote/%s/history")
	v.SetDefault("indicators.codes", []string{"DOLA-USD", "EURUSD=X", "CL=F", "GC=F"})
	v.SetDefault("indicators.snapshot_path", "data/indicators.csv")
	v.SetDefault("indicators.history_path", "data/logs/indicators_monitor.json")
	v.SetDefault("store.provider", "csv")
	v.SetDefault("store.postgres.table", "indicators")
	v.SetDefault("store.postgres.max_conns", 0)
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("monitor.window", 30)
	v.SetDefault("monitor.sma_window", 5)
	v.SetDefault("monitor.min_values", 5)
	v.SetDefault("monitor.product_epsilon", 0.05)
	v.SetDefault("monitor.indicator_epsilon", 0.02)
	v.SetDefault("monitor.history_limit", 30)
	v.SetDefault("alert.provider", "smtp")
	v.SetDefault("alert.smtp.port", 587)

	// Viper only unmarshals keys it knows about; env-only keys must be
	// registered here or AutomaticEnv never surfaces them.
	for _, key := range []string{
		"store.postgres.dsn",
		"archive.base_dir",
		"archive.gcs_bucket",
		"alert.smtp.host",
		"alert.smtp.sender",
		"alert.smtp.receiver",
		"alert.smtp.password",
		"alert.pubsub.project_id",
		"alert.pubsub.topic_id",
	} {
		v.SetDefault(key, "")
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.Headless.Enabled && c.Fetch.Headless.MaxParallel <= 0 {
		return fmt.Errorf("fetch.headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Monitor.Window <= 0 {
		return fmt.Errorf("monitor.window must be > 0")
	}
	if c.Monitor.SMAWindow <= 0 || c.Monitor.SMAWindow > c.Monitor.Window {
		return fmt.Errorf("monitor.sma_window must be in 1..monitor.window")
	}
	if c.Monitor.ProductEpsilon < 0 || c.Monitor.IndicatorEpsilon < 0 {
		return fmt.Errorf("monitor epsilons must be >= 0")
	}
	switch c.Store.Provider {
	case "csv":
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.provider is 'postgres' but store.postgres.dsn is not set")
		}
	default:
		return fmt.Errorf("unknown store provider: %s", c.Store.Provider)
	}
	switch c.Archive.Provider {
	case "noop", "local", "gcs":
	default:
		return fmt.Errorf("unknown archive provider: %s", c.Archive.Provider)
	}
	switch c.Alert.Provider {
	case "smtp", "pubsub", "noop":
	default:
		return fmt.Errorf("unknown alert provider: %s", c.Alert.Provider)
	}
	return nil
}

// FetchTimeout converts the configured timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// HeadlessNavTimeout converts the configured navigation timeout.
func (c Config) HeadlessNavTimeout() time.Duration {
	return time.Duration(c.Fetch.Headless.NavTimeoutSec) * time.Second
}
