package allowlist

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/RichardSufliarsky/apikeywall/pkg/rules"
)

// Publisher receives the derived allow-list.
type Publisher interface {
	SetAllowHosts(hosts []string)
}

// Recorder records allow-list publications.
type Recorder interface {
	SetAllowHosts(count int)
}

// Projector keeps a Publisher in sync with the active rule table.
type Projector struct {
	pub      Publisher
	logger   *slog.Logger
	recorder Recorder

	mu        sync.Mutex
	published []string
}

// Option configures a Projector.
type Option func(*Projector)

// WithLogger sets the projector logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Projector) {
		p.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Projector) {
		p.recorder = r
	}
}

// NewProjector creates a Projector publishing to pub. The engine is assumed
// to start with an empty allow-list, so nothing is published until a table
// with at least one endpoint is synced.
func NewProjector(pub Publisher, opts ...Option) *Projector {
	p := &Projector{pub: pub, published: []string{}}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default().With("component", "allowlist")
	}
	return p
}

// Sync derives the allow-list from t and publishes it when it differs from
// the last published list. It reports whether anything was published.
func (p *Projector) Sync(t *rules.Table) bool {
	hosts := t.Endpoints()

	p.mu.Lock()
	defer p.mu.Unlock()

	if slices.Equal(p.published, hosts) {
		return false
	}

	p.pub.SetAllowHosts(hosts)
	p.published = hosts

	p.logger.Info("updated allow_hosts",
		"hosts", len(hosts),
		"generation", t.Generation(),
	)
	if p.recorder != nil {
		p.recorder.SetAllowHosts(len(hosts))
	}
	return true
}

// Published returns a copy of the last published allow-list.
func (p *Projector) Published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.published)
}
