package journal

import (
	"context"
	"time"
)

// Entry is one recorded reload attempt.
type Entry struct {
	// ID is assigned by the store on Append.
	ID int64 `json:"id" yaml:"id"`

	// Time is when the attempt finished.
	Time time.Time `json:"time" yaml:"time"`

	// Path is the secrets file location.
	Path string `json:"path" yaml:"path"`

	// Outcome is the reload outcome label (applied, rejected, ...).
	Outcome string `json:"outcome" yaml:"outcome"`

	// Generation is the table generation after an applied reload, or the
	// generation still in effect otherwise.
	Generation uint64 `json:"generation" yaml:"generation"`

	// Rules is the number of rules installed by an applied reload.
	Rules int `json:"rules" yaml:"rules"`

	// Errors is the number of validation errors for a rejected file.
	Errors int `json:"errors" yaml:"errors"`
}

// Query filters List results.
type Query struct {
	// Limit caps the number of entries returned. Zero means no limit.
	Limit int

	// Outcome restricts results to one outcome label.
	Outcome string

	// Since restricts results to entries recorded at or after this time.
	Since time.Time
}

// Store persists journal entries. Implementations are safe for concurrent use.
type Store interface {
	// Append records e and sets its ID. A zero Time is set to now.
	Append(ctx context.Context, e *Entry) error

	// List returns matching entries, newest first.
	List(ctx context.Context, q Query) ([]Entry, error)

	// Close releases resources held by the store.
	Close() error
}

// DefaultMaxEntries bounds the history when no limit is configured.
const DefaultMaxEntries = 1000

func (q Query) matches(e *Entry) bool {
	if q.Outcome != "" && e.Outcome != q.Outcome {
		return false
	}
	if !q.Since.IsZero() && e.Time.Before(q.Since) {
		return false
	}
	return true
}
