package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marketwatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9090"
database:
  path: /tmp/test.db
market:
  url: http://localhost:9000/market
  poll_interval: 30s
alerts:
  drop_ratio: 0.4
  rate_limit_per_min: 5
notifiers:
  desktop: true
  webhook_url: https://hooks.example.com/T/B/x
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Address != ":9090" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Market.URL != "http://localhost:9000/market" {
		t.Errorf("market url = %q", cfg.Market.URL)
	}
	if cfg.Market.PollInterval != 30*time.Second {
		t.Errorf("poll interval = %v", cfg.Market.PollInterval)
	}
	if cfg.Alerts.DropRatio != 0.4 {
		t.Errorf("drop ratio = %v", cfg.Alerts.DropRatio)
	}
	if cfg.Alerts.RateLimitPerMin != 5 {
		t.Errorf("rate limit = %d", cfg.Alerts.RateLimitPerMin)
	}
	if !cfg.Notifiers.Desktop || cfg.Notifiers.Sound {
		t.Errorf("notifiers = %+v", cfg.Notifiers)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
market:
  url: http://localhost:9000/market
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Address != ":8085" {
		t.Errorf("address = %q, want :8085", cfg.Server.Address)
	}
	if cfg.Database.Path != "marketwatch.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Market.PollInterval != 60*time.Second {
		t.Errorf("poll interval = %v, want 60s", cfg.Market.PollInterval)
	}
	if cfg.Market.RequestTimeout != 30*time.Second {
		t.Errorf("request timeout = %v, want 30s", cfg.Market.RequestTimeout)
	}
	if cfg.Alerts.DropRatio != 0.5 || cfg.Alerts.RiseRatio != 1.5 || cfg.Alerts.UndercutRatio != 0.7 {
		t.Errorf("ratios = %v/%v/%v", cfg.Alerts.DropRatio, cfg.Alerts.RiseRatio, cfg.Alerts.UndercutRatio)
	}
	if cfg.Alerts.VolumeMultiple != 2 || cfg.Alerts.RateLimitPerMin != 10 {
		t.Errorf("volume multiple = %v, rate limit = %d", cfg.Alerts.VolumeMultiple, cfg.Alerts.RateLimitPerMin)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "market: [broken")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			name:   "missing market url",
			yaml:   "server:\n  address: \":8085\"\n",
			errMsg: "market.url",
		},
		{
			name:   "drop ratio too high",
			yaml:   "market:\n  url: http://x\nalerts:\n  drop_ratio: 1.2\n",
			errMsg: "drop_ratio",
		},
		{
			name:   "rise ratio too low",
			yaml:   "market:\n  url: http://x\nalerts:\n  rise_ratio: 0.8\n",
			errMsg: "rise_ratio",
		},
		{
			name:   "undercut ratio too high",
			yaml:   "market:\n  url: http://x\nalerts:\n  undercut_ratio: 1.5\n",
			errMsg: "undercut_ratio",
		},
		{
			name:   "watch without file",
			yaml:   "market:\n  url: http://x\nalerts:\n  watch_file: true\n",
			errMsg: "watch_file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want substring %q", err, tt.errMsg)
			}
		})
	}
}
