package proxy

import (
	"net"
	"net/http"
	"strings"
)

// Flow is one proxied request as presented to request hooks.
type Flow struct {
	// Request is the client request. Hooks may modify its headers; the
	// modified request is what goes upstream.
	Request *http.Request

	// Host is the destination host name without port.
	Host string

	// ID correlates the flow with log records.
	ID string
}

// RequestHook is called once the request headers have been read and before
// the request is forwarded.
type RequestHook interface {
	RequestHeaders(f *Flow)
}

// RequestHookFunc adapts a function to RequestHook.
type RequestHookFunc func(f *Flow)

// RequestHeaders calls fn(f).
func (fn RequestHookFunc) RequestHeaders(f *Flow) {
	fn(f)
}

// flowHost returns the destination host of r without port.
func flowHost(r *http.Request) string {
	host := r.URL.Host
	if host == "" {
		host = r.Host
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}
