package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals are the signals that stop the gateway.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SetupSignalHandler returns a context that is cancelled on SIGINT or
// SIGTERM. The signal is logged. Calling stop releases the handler.
func SetupSignalHandler(parent context.Context, logger *slog.Logger) (ctx context.Context, stop context.CancelFunc) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, ShutdownSignals...)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
