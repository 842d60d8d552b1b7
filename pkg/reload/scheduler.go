package reload

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/RichardSufliarsky/apikeywall/pkg/config"
)

// Mode selects what triggers a reload attempt.
type Mode string

const (
	// ModeInterval runs a background job every Interval.
	ModeInterval Mode = config.ReloadModeInterval

	// ModeRequest checks inline with request handling, at most once per
	// MinInterval.
	ModeRequest Mode = config.ReloadModeRequest

	// ModeWatch reacts to filesystem notifications.
	ModeWatch Mode = config.ReloadModeWatch
)

// ParseMode parses a mode name. The empty string selects ModeInterval.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeInterval, "":
		return ModeInterval, nil
	case ModeRequest:
		return ModeRequest, nil
	case ModeWatch:
		return ModeWatch, nil
	default:
		return "", fmt.Errorf("unknown reload mode %q (valid: interval, request, watch)", s)
	}
}

// ShutdownFlag is the process shutdown flag as seen by the scheduler.
type ShutdownFlag interface {
	IsSet() bool
	Done() <-chan struct{}
}

// SchedulerConfig contains scheduler settings.
type SchedulerConfig struct {
	Mode        Mode
	Interval    time.Duration
	MinInterval time.Duration
	Debounce    time.Duration
}

// SchedulerConfigFrom converts the reload config section.
func SchedulerConfigFrom(cfg config.ReloadConfig) (SchedulerConfig, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return SchedulerConfig{}, err
	}
	return SchedulerConfig{
		Mode:        mode,
		Interval:    cfg.Interval,
		MinInterval: cfg.MinInterval,
		Debounce:    cfg.Debounce,
	}, nil
}

// Scheduler triggers reload attempts according to its Mode.
type Scheduler struct {
	reloader *Reloader
	shutdown ShutdownFlag
	config   SchedulerConfig
	path     string
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool

	// now is the request-mode clock; time.Now carries a monotonic reading.
	now       func() time.Time
	throttle  sync.Mutex
	lastCheck time.Time
}

// NewScheduler creates a scheduler for reloader. path is the secrets file
// location, used by watch mode.
func NewScheduler(reloader *Reloader, shutdown ShutdownFlag, path string, cfg SchedulerConfig, logger *slog.Logger) (*Scheduler, error) {
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeInterval
	}
	if cfg.Interval <= 0 {
		cfg.Interval = config.DefaultReloadInterval
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = config.DefaultReloadMinInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = config.DefaultReloadDebounce
	}
	if logger == nil {
		logger = slog.Default().With("component", "reload.scheduler")
	}

	return &Scheduler{
		reloader: reloader,
		shutdown: shutdown,
		config:   cfg,
		path:     path,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Mode returns the active trigger mode.
func (s *Scheduler) Mode() Mode {
	return s.config.Mode
}

// Run drives reload attempts until ctx is cancelled or the shutdown flag is
// set. In request mode the attempts happen in Middleware and Run only waits.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.shutdown.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("reload scheduler started", "mode", string(s.config.Mode))
	defer s.logger.Info("reload scheduler stopped")

	switch s.config.Mode {
	case ModeInterval:
		if err := s.startCron(); err != nil {
			return err
		}
		defer s.Stop()
		<-ctx.Done()
		return nil

	case ModeWatch:
		fw, err := NewFileWatcher(s.path, s.config.Debounce, s.logger)
		if err != nil {
			return err
		}
		// Events only fire on create and write, so a file left behind by a
		// failed claim is picked up by the interval job instead.
		if err := s.startCron(); err != nil {
			fw.close()
			return err
		}
		defer s.Stop()
		// A file placed before the watch was registered raises no event.
		s.tick()
		return fw.Watch(ctx, s.tick)

	default:
		<-ctx.Done()
		return nil
	}
}

// startCron schedules the interval job.
func (s *Scheduler) startCron() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("reload scheduler already running")
	}

	logger := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	schedule := "@every " + s.config.Interval.String()
	if _, err := c.AddFunc(schedule, s.tick); err != nil {
		return fmt.Errorf("failed to schedule reload %q: %w", schedule, err)
	}

	c.Start()
	s.cron = c
	s.running = true

	s.logger.Info("reload interval scheduled",
		"interval", s.config.Interval.String(),
		"path", s.path,
	)
	return nil
}

// Stop stops the interval job and waits for a running attempt to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
	}
}

// IsRunning returns true while the interval job is scheduled. The job runs
// in interval and watch modes.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled attempt in interval mode, or nil.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}

// tick runs one attempt unless the process is shutting down or there is
// nothing to claim.
func (s *Scheduler) tick() {
	if s.shutdown.IsSet() {
		return
	}
	if !s.reloader.Exists() {
		return
	}
	s.reloader.ReloadIfPresent()
}

// MaybeReload runs an attempt when at least MinInterval has elapsed since
// the last check. It reports whether this call performed the check.
func (s *Scheduler) MaybeReload() bool {
	now := s.now()

	s.throttle.Lock()
	if !s.lastCheck.IsZero() && now.Sub(s.lastCheck) < s.config.MinInterval {
		s.throttle.Unlock()
		return false
	}
	s.lastCheck = now
	s.throttle.Unlock()

	s.tick()
	return true
}

// Middleware runs MaybeReload before each request in request mode. In other
// modes it returns next unchanged.
func (s *Scheduler) Middleware(next http.Handler) http.Handler {
	if s.config.Mode != ModeRequest {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.MaybeReload()
		next.ServeHTTP(w, r)
	})
}
