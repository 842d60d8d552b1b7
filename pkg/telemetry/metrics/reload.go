package metrics

import (
	"time"

	"github.com/RichardSufliarsky/apikeywall/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Reload outcomes.
const (
	ReloadAbsent      = "absent"
	ReloadClaimFailed = "claim_failed"
	ReloadParseFailed = "parse_failed"
	ReloadRejected    = "rejected"
	ReloadApplied     = "applied"
)

// ReloadMetrics tracks the secret lifecycle.
//
// Metrics:
//   - apikeywall_reloads_total: Reload attempts by outcome
//   - apikeywall_rules_generation: Generation of the active rule table
//   - apikeywall_rules_loaded: Number of rules in the active table
//   - apikeywall_last_reload_success_timestamp_seconds: Unix time of the last applied reload
//   - apikeywall_secret_cleanup_failures_total: Claimed files that could not be deleted
//   - apikeywall_allow_hosts: Hosts in the published allow-list
//   - apikeywall_allow_hosts_updates_total: Allow-list publications
type ReloadMetrics struct {
	reloadsTotal *prometheus.CounterVec

	generation  prometheus.Gauge
	rulesLoaded prometheus.Gauge
	lastSuccess prometheus.Gauge

	cleanupFailuresTotal prometheus.Counter

	allowHosts        prometheus.Gauge
	allowHostsUpdates prometheus.Counter
}

// NewReloadMetrics creates and registers reload metrics with the provided registry.
func NewReloadMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ReloadMetrics {
	rm := &ReloadMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "reloads_total",
				Help:      "Total number of secrets reload attempts by outcome",
			},
			[]string{"outcome"},
		),

		generation: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "rules_generation",
				Help:      "Generation of the active rule table",
			},
		),

		rulesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "rules_loaded",
				Help:      "Number of rules in the active rule table",
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "last_reload_success_timestamp_seconds",
				Help:      "Unix time of the last applied reload",
			},
		),

		cleanupFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "secret_cleanup_failures_total",
				Help:      "Total number of claimed secrets files that could not be deleted",
			},
		),

		allowHosts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "allow_hosts",
				Help:      "Number of hosts in the published allow-list",
			},
		),

		allowHostsUpdates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "allow_hosts_updates_total",
				Help:      "Total number of allow-list publications",
			},
		),
	}

	registry.MustRegister(
		rm.reloadsTotal,
		rm.generation,
		rm.rulesLoaded,
		rm.lastSuccess,
		rm.cleanupFailuresTotal,
		rm.allowHosts,
		rm.allowHostsUpdates,
	)

	return rm
}

// RecordAttempt records one reload attempt.
func (rm *ReloadMetrics) RecordAttempt(outcome string) {
	rm.reloadsTotal.WithLabelValues(outcome).Inc()
}

// SetActive records the table that was just applied.
func (rm *ReloadMetrics) SetActive(generation uint64, count int, at time.Time) {
	rm.generation.Set(float64(generation))
	rm.rulesLoaded.Set(float64(count))
	rm.lastSuccess.Set(float64(at.Unix()))
}

// RecordCleanupFailure records a temp file that survived its claim.
func (rm *ReloadMetrics) RecordCleanupFailure() {
	rm.cleanupFailuresTotal.Inc()
}

// SetAllowHosts records a published allow-list.
func (rm *ReloadMetrics) SetAllowHosts(count int) {
	rm.allowHosts.Set(float64(count))
	rm.allowHostsUpdates.Inc()
}
