// Package config provides configuration management for apikeywall.
//
// Configuration is read from an optional YAML file, completed with defaults
// and overridden by environment variables:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("apikeywall.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention APIKEYWALL_SECTION_FIELD:
//
//   - APIKEYWALL_PROXY_LISTEN_ADDRESS overrides proxy.listen_address
//   - APIKEYWALL_SECRETS_PATH overrides secrets.path
//   - APIKEYWALL_RELOAD_MODE overrides reload.mode
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// This package configures the gateway process only. The substitution rules
// themselves come from the one-shot secrets file handled by package secrets
// and are never part of Config.
//
// # Example Configuration
//
//	proxy:
//	  listen_address: "127.0.0.1:8080"
//	  idle_timeout: 2h
//	secrets:
//	  path: "~/.apikeywall/apikeywall.json"
//	  allow_missing_on_startup: false
//	reload:
//	  mode: interval
//	  interval: 1s
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  metrics:
//	    enabled: true
//	    listen_address: "127.0.0.1:9090"
//	journal:
//	  enabled: true
//	  max_entries: 500
package config
