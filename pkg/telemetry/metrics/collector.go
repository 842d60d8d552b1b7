package metrics

import (
	"net/http"
	"time"

	"github.com/RichardSufliarsky/apikeywall/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the orchestrator for all Prometheus metrics in apikeywall.
// It owns the registry and the per-area metric sets.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	reloadMetrics       *ReloadMetrics
	substitutionMetrics *SubstitutionMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created
// with the Go runtime and process collectors registered on it.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "apikeywall",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.reloadMetrics = NewReloadMetrics(cfg, registry)
	c.substitutionMetrics = NewSubstitutionMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordReload records the outcome of one reload attempt.
//
// Parameters:
//   - outcome: one of the Reload* constants
func (c *Collector) RecordReload(outcome string) {
	if !c.enabled() {
		return
	}

	c.reloadMetrics.RecordAttempt(outcome)
}

// SetRules records a newly applied rule table.
//
// Parameters:
//   - generation: the table's reload generation
//   - count: the number of rules in the table
func (c *Collector) SetRules(generation uint64, count int) {
	if !c.enabled() {
		return
	}

	c.reloadMetrics.SetActive(generation, count, time.Now())
}

// RecordCleanupFailure records a claimed secrets file that could not be
// deleted.
func (c *Collector) RecordCleanupFailure() {
	if !c.enabled() {
		return
	}

	c.reloadMetrics.RecordCleanupFailure()
}

// SetAllowHosts records a newly published allow-list.
//
// Parameters:
//   - count: the number of hosts in the published allow-list
func (c *Collector) SetAllowHosts(count int) {
	if !c.enabled() {
		return
	}

	c.reloadMetrics.SetAllowHosts(count)
}

// RecordSubstitution records the outcome of intercepting one request.
//
// Parameters:
//   - outcome: one of the Substitution* constants
func (c *Collector) RecordSubstitution(outcome string) {
	if !c.enabled() {
		return
	}

	c.substitutionMetrics.Record(outcome)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format,
// negotiating OpenMetrics when the scraper asks for it.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
