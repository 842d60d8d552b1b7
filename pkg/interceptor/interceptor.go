package interceptor

import (
	"log/slog"
	"strings"

	"github.com/RichardSufliarsky/apikeywall/pkg/proxy"
	"github.com/RichardSufliarsky/apikeywall/pkg/rules"
	"github.com/RichardSufliarsky/apikeywall/pkg/telemetry/logging"
	"github.com/RichardSufliarsky/apikeywall/pkg/telemetry/metrics"
)

// AuthorizationHeader is the header carrying the bearer token.
const AuthorizationHeader = "Authorization"

const bearerPrefix = "bearer "

// Recorder records substitution outcomes.
type Recorder interface {
	RecordSubstitution(outcome string)
}

// Interceptor is a proxy.RequestHook rewriting placeholder credentials.
type Interceptor struct {
	store    *rules.Store
	logger   *slog.Logger
	recorder Recorder
}

var _ proxy.RequestHook = (*Interceptor)(nil)

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithLogger sets the fallback logger used when a request carries no
// request-scoped logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		i.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(i *Interceptor) {
		i.recorder = r
	}
}

// New creates an Interceptor reading rules from store.
func New(store *rules.Store, opts ...Option) *Interceptor {
	i := &Interceptor{store: store}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.Default().With("component", "interceptor")
	}
	return i
}

// ExtractBearer returns the token of a "Bearer <token>" header value. The
// scheme is matched case-insensitively; the token is returned verbatim.
func ExtractBearer(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	return header[len(bearerPrefix):], true
}

// RequestHeaders implements proxy.RequestHook.
func (i *Interceptor) RequestHeaders(f *proxy.Flow) {
	table := i.store.Snapshot()
	if table.Empty() {
		return
	}

	token, ok := ExtractBearer(f.Request.Header.Get(AuthorizationHeader))
	if !ok {
		return
	}

	rule, ok := table.Lookup(token)
	if !ok {
		i.record(metrics.SubstitutionUnknownToken)
		return
	}

	logger := logging.FromContext(f.Request.Context(), i.logger)

	if !rule.Allows(f.Host) {
		logger.Debug("placeholder not valid for host",
			logging.PlaceholderKey, token,
			"host", f.Host,
			"flow_id", f.ID,
		)
		i.record(metrics.SubstitutionHostMismatch)
		return
	}

	f.Request.Header.Set(AuthorizationHeader, "Bearer "+rule.TokenOut)
	logger.Info("replaced placeholder",
		logging.PlaceholderKey, token,
		"host", f.Host,
		"flow_id", f.ID,
	)
	i.record(metrics.SubstitutionReplaced)
}

func (i *Interceptor) record(outcome string) {
	if i.recorder != nil {
		i.recorder.RecordSubstitution(outcome)
	}
}
