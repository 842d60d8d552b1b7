package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redacted is the replacement written in place of a masked value.
const Redacted = "***"

// Redactor masks credentials in log records.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternBearerToken = "bearer_token"
	PatternAPIKey      = "api_key"
)

// sensitiveKeys are matched as substrings of the lowercased attribute key.
var sensitiveKeys = []string{
	"tokenout",
	"authorization",
	"secret",
	"password",
	"passwd",
	"api_key",
	"apikey",
	"private_key",
	"credential",
}

// PlaceholderKey is the attribute key placeholders are logged under. Its
// values are identifiers, not credentials, so value patterns skip it.
const PlaceholderKey = "placeholder"

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*redactPattern{
			{
				name:        PatternBearerToken,
				regex:       regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
				replacement: "Bearer " + Redacted,
			},
			{
				name:        PatternAPIKey,
				regex:       regexp.MustCompile(`\bsk-[a-zA-Z0-9_\-]{8,}`),
				replacement: "sk-" + Redacted,
			},
		},
	}
}

// RedactString scrubs credential-shaped substrings from value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}
	return redacted
}

// IsSensitiveKey reports whether an attribute key names a credential.
func (r *Redactor) IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook applying the
// redaction rules to every attribute, including ones added with With.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}

	if r.IsSensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	if a.Key == PlaceholderKey {
		return a
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); s != "" {
			a.Value = slog.StringValue(r.RedactString(s))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			a.Value = slog.StringValue(r.RedactString(err.Error()))
		}
	}
	return a
}
