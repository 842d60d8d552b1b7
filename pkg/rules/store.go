package rules

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Store holds the active rule table. Readers call Snapshot and work on the
// returned table; a reload publishes a new table with a single pointer swap,
// so a prior snapshot stays valid and consistent.
//
// Store is safe for concurrent use.
type Store struct {
	// mu serializes writers so each Replace bumps the generation once.
	mu      sync.Mutex
	current atomic.Pointer[Table]
}

// NewStore creates a Store holding the empty generation-0 table.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(emptyTable)
	return s
}

// Replace installs rules as the new active table and returns it.
// The map is copied; the caller may reuse it.
func (s *Store) Replace(rules map[string]Rule) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := &Table{
		rules:      maps.Clone(rules),
		generation: s.current.Load().generation + 1,
	}
	if next.rules == nil {
		next.rules = map[string]Rule{}
	}
	s.current.Store(next)
	return next
}

// Snapshot returns the active table.
func (s *Store) Snapshot() *Table {
	return s.current.Load()
}

// Generation returns the generation of the active table.
func (s *Store) Generation() uint64 {
	return s.current.Load().generation
}
