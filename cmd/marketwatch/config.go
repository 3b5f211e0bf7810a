// Package main provides the MarketWatch daemon CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the daemon configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Market    MarketConfig    `yaml:"market"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Notifiers NotifiersConfig `yaml:"notifiers"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Address string `yaml:"address"` // listen address (default: :8085)
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // database file path (default: marketwatch.db)
}

// MarketConfig contains market data source settings.
type MarketConfig struct {
	URL            string        `yaml:"url"`              // market data endpoint
	PollInterval   time.Duration `yaml:"poll_interval"`    // refresh cadence (default: 60s)
	RequestTimeout time.Duration `yaml:"request_timeout"`  // per-request timeout (default: 30s)
	RequestsPerSec float64       `yaml:"requests_per_sec"` // outbound rate limit (default: 2)
}

// AlertsConfig contains alert evaluation settings.
type AlertsConfig struct {
	File            string  `yaml:"file"`               // optional seeded definitions YAML
	WatchFile       bool    `yaml:"watch_file"`         // hot-reload the definitions file
	DropRatio       float64 `yaml:"drop_ratio"`         // price-drop trigger ratio (default: 0.5)
	RiseRatio       float64 `yaml:"rise_ratio"`         // price-rise trigger ratio (default: 1.5)
	UndercutRatio   float64 `yaml:"undercut_ratio"`     // undercut trigger ratio (default: 0.7)
	VolumeMultiple  float64 `yaml:"volume_multiple"`    // default volume-spike multiplier (default: 2)
	RateLimitPerMin int     `yaml:"rate_limit_per_min"` // notifications per minute (default: 10)
}

// NotifiersConfig enables or configures notification channels.
type NotifiersConfig struct {
	Desktop    bool   `yaml:"desktop"`     // desktop notifications via notify-send
	Sound      bool   `yaml:"sound"`       // audible alerts via paplay/aplay
	WebhookURL string `yaml:"webhook_url"` // optional Slack-compatible webhook
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8085"
	}
	if c.Database.Path == "" {
		c.Database.Path = "marketwatch.db"
	}
	if c.Market.PollInterval <= 0 {
		c.Market.PollInterval = 60 * time.Second
	}
	if c.Market.RequestTimeout <= 0 {
		c.Market.RequestTimeout = 30 * time.Second
	}
	if c.Market.RequestsPerSec <= 0 {
		c.Market.RequestsPerSec = 2
	}
	if c.Alerts.DropRatio <= 0 {
		c.Alerts.DropRatio = 0.5
	}
	if c.Alerts.RiseRatio <= 0 {
		c.Alerts.RiseRatio = 1.5
	}
	if c.Alerts.UndercutRatio <= 0 {
		c.Alerts.UndercutRatio = 0.7
	}
	if c.Alerts.VolumeMultiple <= 0 {
		c.Alerts.VolumeMultiple = 2
	}
	if c.Alerts.RateLimitPerMin <= 0 {
		c.Alerts.RateLimitPerMin = 10
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Market.URL == "" {
		return fmt.Errorf("market.url is required")
	}
	if c.Alerts.DropRatio >= 1 {
		return fmt.Errorf("alerts.drop_ratio must be below 1")
	}
	if c.Alerts.RiseRatio <= 1 {
		return fmt.Errorf("alerts.rise_ratio must be above 1")
	}
	if c.Alerts.UndercutRatio >= 1 {
		return fmt.Errorf("alerts.undercut_ratio must be below 1")
	}
	if c.Alerts.WatchFile && c.Alerts.File == "" {
		return fmt.Errorf("alerts.watch_file requires alerts.file")
	}
	return nil
}
