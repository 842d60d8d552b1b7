package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "apikeywall.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfig(t, `
proxy:
  listen_address: "0.0.0.0:3128"
  idle_timeout: "30m"
  upstream_tls: true

secrets:
  path: "/run/apikeywall/secrets.json"
  allow_missing_on_startup: true

reload:
  mode: "watch"
  debounce: "250ms"

journal:
  enabled: true
  max_entries: 50

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: true
    listen_address: "127.0.0.1:9191"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Proxy.ListenAddress != "0.0.0.0:3128" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:3128", cfg.Proxy.ListenAddress)
	}
	if cfg.Proxy.IdleTimeout != 30*time.Minute {
		t.Errorf("expected idle timeout %v, got %v", 30*time.Minute, cfg.Proxy.IdleTimeout)
	}
	if !cfg.Proxy.UpstreamTLS {
		t.Error("expected upstream_tls to be true")
	}
	if cfg.Secrets.Path != "/run/apikeywall/secrets.json" {
		t.Errorf("expected secrets path, got %q", cfg.Secrets.Path)
	}
	if !cfg.Secrets.AllowMissingOnStartup {
		t.Error("expected allow_missing_on_startup to be true")
	}
	if cfg.Reload.Mode != ReloadModeWatch {
		t.Errorf("expected reload mode %q, got %q", ReloadModeWatch, cfg.Reload.Mode)
	}
	if cfg.Reload.Debounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.Reload.Debounce)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}

	if !cfg.Journal.Enabled || cfg.Journal.MaxEntries != 50 {
		t.Errorf("unexpected journal config: %+v", cfg.Journal)
	}

	// Unset fields fall back to defaults.
	if cfg.Secrets.ClaimSuffix != DefaultSecretsClaimSuffix {
		t.Errorf("expected default claim suffix, got %q", cfg.Secrets.ClaimSuffix)
	}
	if cfg.Reload.Interval != DefaultReloadInterval {
		t.Errorf("expected default reload interval, got %v", cfg.Reload.Interval)
	}
	if cfg.Journal.Path != DefaultJournalPath {
		t.Errorf("expected default journal path, got %q", cfg.Journal.Path)
	}
	if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
		t.Errorf("expected default metrics path, got %q", cfg.Telemetry.Metrics.Path)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "proxy: [unterminated")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	configPath := writeConfig(t, `
reload:
  mode: "sometimes"
telemetry:
  logging:
    level: "loud"
`)

	_, err := LoadConfig(configPath)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
proxy:
  listen_address: "127.0.0.1:8080"
reload:
  mode: "interval"
`)

	t.Setenv("APIKEYWALL_PROXY_LISTEN_ADDRESS", "127.0.0.1:9999")
	t.Setenv("APIKEYWALL_RELOAD_MODE", "request")
	t.Setenv("APIKEYWALL_RELOAD_MIN_INTERVAL", "5s")
	t.Setenv("APIKEYWALL_SECRETS_ALLOW_MISSING_ON_STARTUP", "true")
	t.Setenv("APIKEYWALL_PROXY_IDLE_TIMEOUT", "not-a-duration")
	t.Setenv("APIKEYWALL_JOURNAL_MAX_ENTRIES", "25")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Proxy.ListenAddress != "127.0.0.1:9999" {
		t.Errorf("env override not applied: %q", cfg.Proxy.ListenAddress)
	}
	if cfg.Reload.Mode != ReloadModeRequest {
		t.Errorf("env override not applied: %q", cfg.Reload.Mode)
	}
	if cfg.Reload.MinInterval != 5*time.Second {
		t.Errorf("env override not applied: %v", cfg.Reload.MinInterval)
	}
	if !cfg.Secrets.AllowMissingOnStartup {
		t.Error("env override not applied for allow_missing_on_startup")
	}
	if cfg.Journal.MaxEntries != 25 {
		t.Errorf("env override not applied: %d", cfg.Journal.MaxEntries)
	}
	if cfg.Proxy.IdleTimeout != DefaultIdleTimeout {
		t.Errorf("unparseable override should be ignored, got %v", cfg.Proxy.IdleTimeout)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("APIKEYWALL_SECRETS_PATH", "/tmp/secrets.json")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to build config from defaults: %v", err)
	}
	if cfg.Secrets.Path != "/tmp/secrets.json" {
		t.Errorf("expected env secrets path, got %q", cfg.Secrets.Path)
	}
	if cfg.Proxy.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Proxy.ListenAddress)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	t.Setenv("APIKEYWALL_RELOAD_MODE", "never")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error after override")
	}
	if !strings.Contains(err.Error(), "reload.mode") {
		t.Errorf("expected reload.mode in error, got %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{in: "~/.apikeywall/apikeywall.json", want: filepath.Join(home, ".apikeywall/apikeywall.json")},
		{in: "~", want: home},
		{in: "/etc/apikeywall.json", want: "/etc/apikeywall.json"},
		{in: "relative/file.json", want: "relative/file.json"},
		{in: "~user/file.json", want: "~user/file.json"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExpandHome(tt.in)
			if err != nil {
				t.Fatalf("ExpandHome(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
