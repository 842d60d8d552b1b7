package proxy

import "sync"

// Shutdown is a one-way process-wide shutdown flag. Background loops poll
// IsSet or select on Done; the server stops serving once it is set.
type Shutdown struct {
	once sync.Once
	done chan struct{}
}

// NewShutdown returns an unset flag.
func NewShutdown() *Shutdown {
	return &Shutdown{done: make(chan struct{})}
}

// Set raises the flag. Calling Set more than once is a no-op.
func (s *Shutdown) Set() {
	s.once.Do(func() { close(s.done) })
}

// IsSet reports whether the flag has been raised.
func (s *Shutdown) IsSet() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed when the flag is raised.
func (s *Shutdown) Done() <-chan struct{} {
	return s.done
}
