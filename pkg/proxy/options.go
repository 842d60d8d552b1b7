package proxy

import (
	"slices"
	"sync/atomic"
	"time"
)

// Options holds engine settings that may change while the server runs.
// Options is safe for concurrent use.
type Options struct {
	allowHosts  atomic.Pointer[[]string]
	idleTimeout atomic.Int64
}

// NewOptions creates Options with an empty allow-list and no idle timeout.
func NewOptions() *Options {
	o := &Options{}
	empty := []string{}
	o.allowHosts.Store(&empty)
	return o
}

// SetAllowHosts replaces the allow-list. The slice is copied.
func (o *Options) SetAllowHosts(hosts []string) {
	cp := slices.Clone(hosts)
	if cp == nil {
		cp = []string{}
	}
	o.allowHosts.Store(&cp)
}

// AllowHosts returns a copy of the current allow-list.
func (o *Options) AllowHosts() []string {
	return slices.Clone(*o.allowHosts.Load())
}

// Intercepts reports whether request hooks run for host.
func (o *Options) Intercepts(host string) bool {
	hosts := *o.allowHosts.Load()
	if len(hosts) == 0 {
		return true
	}
	return slices.Contains(hosts, host)
}

// SetIdleTimeout sets how long idle client and upstream connections are kept.
// Zero disables the limit.
func (o *Options) SetIdleTimeout(d time.Duration) {
	o.idleTimeout.Store(int64(d))
}

// IdleTimeout returns the configured idle timeout.
func (o *Options) IdleTimeout() time.Duration {
	return time.Duration(o.idleTimeout.Load())
}
