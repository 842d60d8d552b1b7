// Package logging builds the structured logger used across apikeywall.
//
// # Overview
//
// The package configures Go's log/slog with:
//   - JSON or text output
//   - A configurable minimum level (debug, info, warn, error)
//   - Redaction of credential-bearing attributes
//   - A request-scoped logger carried in context.Context
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logger.Info("secrets reloaded", "rules", 3, "generation", 7)
//
//	// Attributes named like credentials are masked:
//	logger.Info("upstream", "authorization", "Bearer sk-live-123") // authorization=***
//
// # Redaction
//
// The gateway handles real API keys, so every record passes through the
// Redactor before it is written. Attributes whose key names a credential
// ("tokenout", "authorization", "secret", ...) are replaced with "***", and
// string values are scrubbed for bearer tokens and API-key shaped strings.
// Placeholders are logged under the "placeholder" key, which is exempt from
// both key and value masking, so an "sk-" shaped placeholder stays readable.
package logging
