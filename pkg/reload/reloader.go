package reload

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/RichardSufliarsky/apikeywall/pkg/journal"
	"github.com/RichardSufliarsky/apikeywall/pkg/rules"
	"github.com/RichardSufliarsky/apikeywall/pkg/secrets"
)

// Claimer takes ownership of the secrets file.
type Claimer interface {
	Path() string
	Exists() bool
	Claim() (any, error)
}

// Syncer publishes the allow-list derived from a table.
type Syncer interface {
	Sync(t *rules.Table) bool
}

// Recorder records reload metrics.
type Recorder interface {
	RecordReload(outcome string)
	SetRules(generation uint64, count int)
}

// Journal records reload attempts.
type Journal interface {
	Append(ctx context.Context, e *journal.Entry) error
}

// journalTimeout bounds a journal write on the reload path.
const journalTimeout = 2 * time.Second

// Shutdowner raises the process shutdown flag.
type Shutdowner interface {
	Set()
}

// StartupPolicy decides what a startup without secrets means.
type StartupPolicy int

const (
	// StartupRequire shuts the process down when nothing is obtained.
	StartupRequire StartupPolicy = iota

	// StartupTolerate starts with an empty rule table.
	StartupTolerate
)

// Reloader runs the claim, validate and replace pipeline.
// Attempts are serialized; Reloader is safe for concurrent use.
type Reloader struct {
	loader    Claimer
	store     *rules.Store
	projector Syncer
	logger    *slog.Logger
	recorder  Recorder
	journal   Journal

	mu sync.Mutex
}

// Option configures a Reloader.
type Option func(*Reloader)

// WithLogger sets the reloader logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reloader) {
		r.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Reloader) {
		r.recorder = rec
	}
}

// WithJournal records every attempt that found a secrets file.
func WithJournal(j Journal) Option {
	return func(r *Reloader) {
		r.journal = j
	}
}

// NewReloader creates a Reloader. projector may be nil when no allow-list
// needs to be maintained.
func NewReloader(loader Claimer, store *rules.Store, projector Syncer, opts ...Option) *Reloader {
	r := &Reloader{
		loader:    loader,
		store:     store,
		projector: projector,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default().With("component", "reload")
	}
	return r
}

// Exists reports whether a secrets file is waiting to be claimed.
func (r *Reloader) Exists() bool {
	return r.loader.Exists()
}

// ReloadIfPresent claims the secrets file if there is one and, when every
// element validates, installs it as the active table.
func (r *Reloader) ReloadIfPresent() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.reload()
	outcome := entry.outcome
	if r.recorder != nil {
		r.recorder.RecordReload(outcome.String())
	}
	if outcome != OutcomeAbsent {
		r.record(entry)
	}
	return outcome
}

// attempt describes one pass through the pipeline.
type attempt struct {
	outcome    Outcome
	generation uint64
	rules      int
	errors     int
}

func (r *Reloader) record(a attempt) {
	if r.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	err := r.journal.Append(ctx, &journal.Entry{
		Path:       r.loader.Path(),
		Outcome:    a.outcome.String(),
		Generation: a.generation,
		Rules:      a.rules,
		Errors:     a.errors,
	})
	if err != nil {
		r.logger.Warn("failed to record reload in journal",
			"outcome", a.outcome.String(),
			"error", err,
		)
	}
}

func (r *Reloader) reload() attempt {
	current := r.store.Generation()

	raw, err := r.loader.Claim()
	if err != nil {
		var claimErr *secrets.ClaimError
		switch {
		case errors.Is(err, secrets.ErrNotPresent):
			return attempt{outcome: OutcomeAbsent, generation: current}
		case errors.As(err, &claimErr):
			return attempt{outcome: OutcomeClaimFailed, generation: current}
		default:
			return attempt{outcome: OutcomeParseFailed, generation: current}
		}
	}

	errs, rs := rules.Validate(raw)
	if len(errs) > 0 {
		for _, e := range errs {
			r.logger.Error("invalid secrets file",
				"path", r.loader.Path(),
				"error", e,
			)
		}
		return attempt{outcome: OutcomeRejected, generation: current, errors: len(errs)}
	}

	table := r.store.Replace(rs)
	if r.projector != nil {
		r.projector.Sync(table)
	}

	r.logger.Info("loaded rules",
		"path", r.loader.Path(),
		"rules", table.Len(),
		"generation", table.Generation(),
	)
	if r.recorder != nil {
		r.recorder.SetRules(table.Generation(), table.Len())
	}
	return attempt{outcome: OutcomeApplied, generation: table.Generation(), rules: table.Len()}
}

// Startup performs the initial load. With StartupRequire, a startup that
// obtains nothing raises the shutdown flag and returns ErrSecretsMissing.
// A file that decodes but fails validation is never fatal.
func (r *Reloader) Startup(policy StartupPolicy, shutdown Shutdowner) error {
	outcome := r.ReloadIfPresent()
	if outcome.Obtained() {
		return nil
	}

	if policy == StartupTolerate {
		r.logger.Info("no secrets loaded at startup, starting with empty rules",
			"path", r.loader.Path(),
			"outcome", outcome.String(),
		)
		return nil
	}

	r.logger.Error("secrets file missing",
		"path", r.loader.Path(),
		"outcome", outcome.String(),
	)
	if shutdown != nil {
		shutdown.Set()
	}
	return ErrSecretsMissing
}
