package reload

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronLogger routes cron's internal logging to slog. Cron's informational
// chatter (schedule, wake, run) goes to debug.
type cronLogger struct {
	logger *slog.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
