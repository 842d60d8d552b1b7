package metrics

import (
	"github.com/RichardSufliarsky/apikeywall/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Substitution outcomes.
const (
	// SubstitutionReplaced means the placeholder was swapped for the real credential.
	SubstitutionReplaced = "replaced"

	// SubstitutionHostMismatch means the token is managed but the host is not
	// one of the rule's endpoints.
	SubstitutionHostMismatch = "host_mismatch"

	// SubstitutionUnknownToken means the bearer token is not a placeholder.
	SubstitutionUnknownToken = "unknown_token"
)

// SubstitutionMetrics tracks request interception.
//
// Metrics:
//   - apikeywall_substitutions_total: Intercepted bearer tokens by outcome
type SubstitutionMetrics struct {
	substitutionsTotal *prometheus.CounterVec
}

// NewSubstitutionMetrics creates and registers substitution metrics with the provided registry.
func NewSubstitutionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SubstitutionMetrics {
	sm := &SubstitutionMetrics{
		substitutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "substitutions_total",
				Help:      "Total number of intercepted bearer tokens by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(sm.substitutionsTotal)

	return sm
}

// Record records one interception outcome.
func (sm *SubstitutionMetrics) Record(outcome string) {
	sm.substitutionsTotal.WithLabelValues(outcome).Inc()
}
