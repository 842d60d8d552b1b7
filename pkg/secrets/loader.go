package secrets

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// DefaultClaimSuffix is appended to the secrets path to form the temp name
// the file is renamed to while it is being read.
const DefaultClaimSuffix = ".loading"

// Loader claims, reads and deletes the secrets file at a fixed path.
// It is safe for concurrent use: the rename guarantees that only one caller
// can obtain a given file.
type Loader struct {
	path   string
	suffix string
	logger *slog.Logger

	onCleanupFailure func(path string, err error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithClaimSuffix overrides DefaultClaimSuffix.
func WithClaimSuffix(suffix string) Option {
	return func(l *Loader) {
		if suffix != "" {
			l.suffix = suffix
		}
	}
}

// WithLogger sets the logger used for claim, parse and cleanup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithCleanupFailureHook registers a callback invoked when the temp file
// could not be removed after a claim.
func WithCleanupFailureHook(fn func(path string, err error)) Option {
	return func(l *Loader) {
		l.onCleanupFailure = fn
	}
}

// NewLoader creates a Loader for the secrets file at path.
func NewLoader(path string, opts ...Option) *Loader {
	l := &Loader{
		path:   path,
		suffix: DefaultClaimSuffix,
		logger: slog.Default().With("component", "secrets.loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the secrets file path.
func (l *Loader) Path() string {
	return l.path
}

// TempPath returns the sibling path the file is renamed to while claimed.
func (l *Loader) TempPath() string {
	return l.path + l.suffix
}

// Exists reports whether a secrets file is currently waiting at the path.
// It is a cheap pre-check; Claim remains the authoritative test.
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// Claim atomically takes ownership of the secrets file, decodes it and
// deletes it.
//
// It returns ErrNotPresent when there is no file, a *ClaimError when the
// rename failed for another reason, and a *ParseError when the content is
// not valid UTF-8 JSON. In every case past a successful rename the temp file is
// removed before Claim returns.
func (l *Loader) Claim() (any, error) {
	tmp := l.TempPath()

	if err := os.Rename(l.path, tmp); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotPresent
		}
		l.logger.Error("cannot acquire secrets file",
			"path", l.path,
			"error", err,
		)
		return nil, &ClaimError{Path: l.path, Cause: err}
	}
	defer l.remove(tmp)

	data, err := os.ReadFile(tmp)
	if err != nil {
		l.logger.Error("cannot read claimed secrets file",
			"path", l.path,
			"error", err,
		)
		return nil, &ParseError{Path: l.path, Cause: err}
	}
	// The raw bytes hold every real credential; drop them once decoded.
	defer clear(data)

	if !utf8.Valid(data) {
		l.logger.Error("invalid JSON in secrets file",
			"path", l.path,
			"error", errInvalidUTF8,
		)
		return nil, &ParseError{Path: l.path, Cause: errInvalidUTF8}
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		l.logger.Error("invalid JSON in secrets file",
			"path", l.path,
			"error", err,
		)
		return nil, &ParseError{Path: l.path, Cause: err}
	}

	return raw, nil
}

// remove deletes the claimed temp file. Failure leaves secret material on
// disk, so it is logged as a warning, but the caller still proceeds.
func (l *Loader) remove(tmp string) {
	if err := os.Remove(tmp); err != nil {
		l.logger.Warn("failed to delete secret file",
			"path", tmp,
			"error", err,
		)
		if l.onCleanupFailure != nil {
			l.onCleanupFailure(tmp, err)
		}
	}
}
