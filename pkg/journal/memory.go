package journal

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []Entry
	nextID     int64
	maxEntries int
}

// NewMemoryStore creates a MemoryStore keeping at most maxEntries entries.
// A non-positive maxEntries uses DefaultMaxEntries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{maxEntries: maxEntries}
}

// Append records e.
func (s *MemoryStore) Append(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	e.ID = s.nextID
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s.entries = append(s.entries, *e)

	if over := len(s.entries) - s.maxEntries; over > 0 {
		s.entries = append(s.entries[:0:0], s.entries[over:]...)
	}
	return nil
}

// List returns matching entries, newest first.
func (s *MemoryStore) List(ctx context.Context, q Query) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if !q.matches(&s.entries[i]) {
			continue
		}
		out = append(out, s.entries[i])
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
