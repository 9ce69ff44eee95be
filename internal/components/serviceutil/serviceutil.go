package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context cancelled on the first SIGINT or SIGTERM so
// running work can wind down. A second signal exits the process right away.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigs)

		select {
		case sig := <-sigs:
			slog.Info("shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			return
		}

		sig := <-sigs
		slog.Warn("exiting without waiting for shutdown", "signal", sig.String())
		os.Exit(1)
	}()

	return ctx, cancel
}
