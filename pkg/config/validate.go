package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateSecrets(&cfg.Secrets)...)
	errs = append(errs, validateReload(&cfg.Reload)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProxy validates proxy configuration.
func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
	}

	errs = append(errs, positiveDuration("proxy.idle_timeout", cfg.IdleTimeout)...)
	errs = append(errs, positiveDuration("proxy.read_header_timeout", cfg.ReadHeaderTimeout)...)
	errs = append(errs, positiveDuration("proxy.shutdown_timeout", cfg.ShutdownTimeout)...)

	return errs
}

// validateSecrets validates secrets file configuration.
func validateSecrets(cfg *SecretsConfig) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(cfg.Path) == "" {
		errs = append(errs, FieldError{
			Field:   "secrets.path",
			Message: "secrets path is required",
		})
	}

	// The temp name must be a sibling on the same filesystem for the rename
	// to be atomic.
	if cfg.ClaimSuffix == "" {
		errs = append(errs, FieldError{
			Field:   "secrets.claim_suffix",
			Message: "claim suffix is required",
		})
	} else if strings.ContainsAny(cfg.ClaimSuffix, `/\`) {
		errs = append(errs, FieldError{
			Field:   "secrets.claim_suffix",
			Message: "claim suffix must not contain path separators",
		})
	}

	return errs
}

// validateReload validates reload scheduler configuration.
func validateReload(cfg *ReloadConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case ReloadModeInterval, ReloadModeRequest, ReloadModeWatch:
	default:
		errs = append(errs, FieldError{
			Field:   "reload.mode",
			Message: fmt.Sprintf("invalid reload mode %q (must be interval, request, or watch)", cfg.Mode),
		})
	}

	errs = append(errs, positiveDuration("reload.interval", cfg.Interval)...)
	errs = append(errs, positiveDuration("reload.min_interval", cfg.MinInterval)...)
	errs = append(errs, positiveDuration("reload.debounce", cfg.Debounce)...)

	return errs
}

// validateJournal validates reload journal configuration.
func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxEntries < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.max_entries",
			Message: "must not be negative",
		})
	}
	if cfg.Enabled && strings.TrimSpace(cfg.Path) == "" {
		errs = append(errs, FieldError{
			Field:   "journal.path",
			Message: "journal path is required when the journal is enabled",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid listen address: %v", err),
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
	}

	return errs
}

func positiveDuration(field string, d time.Duration) []FieldError {
	if d <= 0 {
		return []FieldError{{
			Field:   field,
			Message: "must be positive",
		}}
	}
	return nil
}
