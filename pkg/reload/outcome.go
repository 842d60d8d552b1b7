package reload

import "github.com/RichardSufliarsky/apikeywall/pkg/telemetry/metrics"

// Outcome is the result of one reload attempt.
type Outcome int

const (
	// OutcomeAbsent means no secrets file was present.
	OutcomeAbsent Outcome = iota

	// OutcomeClaimFailed means a file was present but could not be renamed.
	OutcomeClaimFailed

	// OutcomeParseFailed means the claimed file was unreadable or not JSON.
	OutcomeParseFailed

	// OutcomeRejected means the file decoded but failed validation.
	OutcomeRejected

	// OutcomeApplied means a new rule table was installed.
	OutcomeApplied
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeAbsent:
		return metrics.ReloadAbsent
	case OutcomeClaimFailed:
		return metrics.ReloadClaimFailed
	case OutcomeParseFailed:
		return metrics.ReloadParseFailed
	case OutcomeRejected:
		return metrics.ReloadRejected
	case OutcomeApplied:
		return metrics.ReloadApplied
	default:
		return "unknown"
	}
}

// Obtained reports whether a decoded document was obtained, whether or not
// it passed validation.
func (o Outcome) Obtained() bool {
	return o == OutcomeRejected || o == OutcomeApplied
}
