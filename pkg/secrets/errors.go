package secrets

import (
	"errors"
	"fmt"
)

// ErrNotPresent is returned by Claim when no secrets file is waiting at the
// path. It is the common case and is never logged.
var ErrNotPresent = errors.New("secrets file not present")

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

// ClaimError is returned when the secrets file exists but could not be
// renamed to its temp name. The original file is left in place so a later
// attempt can retry.
type ClaimError struct {
	// Path is the secrets file path.
	Path string

	// Cause is the underlying rename error.
	Cause error
}

// Error implements the error interface.
func (e *ClaimError) Error() string {
	return fmt.Sprintf("cannot acquire secrets file %q: %v", e.Path, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ClaimError) Unwrap() error {
	return e.Cause
}

// ParseError is returned when the claimed file could not be opened or is not
// valid JSON. The temp file has already been removed when this is returned.
type ParseError struct {
	// Path is the secrets file path the content was claimed from.
	Path string

	// Cause is the underlying open or decode error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON in secrets file %q: %v", e.Path, e.Cause)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
