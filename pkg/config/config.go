package config

import "time"

// Config is the root configuration structure for apikeywall.
// It contains the proxy engine settings, the secrets file location and claim
// policy, the reload scheduler settings and telemetry.
type Config struct {
	// Proxy contains the forward proxy listener and connection settings.
	Proxy ProxyConfig `yaml:"proxy"`

	// Secrets describes where the one-shot secrets file is placed and how a
	// missing file is treated at startup.
	Secrets SecretsConfig `yaml:"secrets"`

	// Reload contains the hot-reload scheduler configuration.
	Reload ReloadConfig `yaml:"reload"`

	// Journal configures the reload history.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the forward proxy.
type ProxyConfig struct {
	// ListenAddress is the address and port for the proxy to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// IdleTimeout bounds how long idle client and upstream connections are
	// kept open. Long-lived streaming API calls need a generous value.
	// Default: 2h
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	// Default: 30s
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// UpstreamTLS forwards requests to the destination over HTTPS even though
	// the client spoke plain HTTP to the proxy.
	// Default: false
	UpstreamTLS bool `yaml:"upstream_tls"`
}

// SecretsConfig contains configuration for the secrets file.
type SecretsConfig struct {
	// Path is the well-known location the operator places the secrets file
	// at. A leading "~/" is expanded to the user's home directory.
	// Default: "~/.apikeywall/apikeywall.json"
	Path string `yaml:"path"`

	// ClaimSuffix is appended to Path to form the temp name the file is
	// renamed to while being read.
	// Default: ".loading"
	ClaimSuffix string `yaml:"claim_suffix"`

	// AllowMissingOnStartup starts the gateway with an empty rule table when
	// no secrets file is present at startup. When false, a missing file at
	// startup shuts the process down.
	// Default: false
	AllowMissingOnStartup bool `yaml:"allow_missing_on_startup"`
}

// ReloadConfig contains configuration for the reload scheduler.
type ReloadConfig struct {
	// Mode selects what triggers a reload check.
	// Options: "interval" (background loop), "request" (throttled check on
	// the request path), "watch" (filesystem notifications)
	// Default: "interval"
	Mode string `yaml:"mode"`

	// Interval is the period of the background loop in interval mode.
	// Sub-second values are rounded up to one second.
	// Default: 1s
	Interval time.Duration `yaml:"interval"`

	// MinInterval is the minimum time between two checks in request mode.
	// Default: 10s
	MinInterval time.Duration `yaml:"min_interval"`

	// Debounce is the quiet period after a filesystem event in watch mode.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`
}

// JournalConfig contains configuration for the reload journal.
type JournalConfig struct {
	// Enabled records every reload attempt that found a secrets file.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file. A leading "~/" is expanded.
	// Default: "~/.apikeywall/journal.db"
	Path string `yaml:"path"`

	// MaxEntries is the number of entries kept, oldest dropped first.
	// Default: 1000
	MaxEntries int `yaml:"max_entries"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains configuration for structured logging.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains configuration for Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded and served.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the admin listener serving metrics and health.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the Prometheus metric namespace.
	// Default: "apikeywall"
	Namespace string `yaml:"namespace"`
}
