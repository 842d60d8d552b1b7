package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress     = "127.0.0.1:8080"
	DefaultIdleTimeout       = 7200 * time.Second
	DefaultReadHeaderTimeout = 30 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second

	// Secrets defaults
	DefaultSecretsPath        = "~/.apikeywall/apikeywall.json"
	DefaultSecretsClaimSuffix = ".loading"

	// Reload defaults
	DefaultReloadMode        = ReloadModeInterval
	DefaultReloadInterval    = time.Second
	DefaultReloadMinInterval = 10 * time.Second
	DefaultReloadDebounce    = 100 * time.Millisecond

	// Journal defaults
	DefaultJournalPath       = "~/.apikeywall/journal.db"
	DefaultJournalMaxEntries = 1000

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "apikeywall"
)

// Reload modes.
const (
	ReloadModeInterval = "interval"
	ReloadModeRequest  = "request"
	ReloadModeWatch    = "watch"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Proxy defaults
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ReadHeaderTimeout == 0 {
		cfg.Proxy.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Secrets defaults
	if cfg.Secrets.Path == "" {
		cfg.Secrets.Path = DefaultSecretsPath
	}
	if cfg.Secrets.ClaimSuffix == "" {
		cfg.Secrets.ClaimSuffix = DefaultSecretsClaimSuffix
	}

	// Reload defaults
	if cfg.Reload.Mode == "" {
		cfg.Reload.Mode = DefaultReloadMode
	}
	if cfg.Reload.Interval == 0 {
		cfg.Reload.Interval = DefaultReloadInterval
	}
	if cfg.Reload.MinInterval == 0 {
		cfg.Reload.MinInterval = DefaultReloadMinInterval
	}
	if cfg.Reload.Debounce == 0 {
		cfg.Reload.Debounce = DefaultReloadDebounce
	}

	// Journal defaults
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}
	if cfg.Journal.MaxEntries == 0 {
		cfg.Journal.MaxEntries = DefaultJournalMaxEntries
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}
