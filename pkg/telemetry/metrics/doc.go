// Package metrics provides Prometheus metrics collection for apikeywall.
//
// # Metrics Categories
//
//   - Reload Metrics: reload attempts by outcome, active generation and rule
//     count, time of the last applied reload, secret cleanup failures
//   - Allow-list Metrics: published host count and update events
//   - Substitution Metrics: request interception outcomes
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	collector.RecordReload(metrics.ReloadApplied)
//	collector.SetRules(generation, count)
//	collector.RecordSubstitution(metrics.SubstitutionReplaced)
//
//	http.Handle("/metrics", collector.Handler())
//
// Labels never carry token values or hostnames, so cardinality is fixed by
// the outcome constants.
//
// A nil *Collector and a collector built from a disabled config are both
// valid and record nothing.
package metrics
