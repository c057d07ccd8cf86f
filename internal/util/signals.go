package util

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context that is cancelled on SIGINT or SIGTERM
// Cancelling it interrupts a running export, which then force-stops its workers.
// A second signal exits immediately with status 1.
func SetupSignalHandler() context.Context {
	return notifyContext(context.Background(), os.Exit, syscall.SIGINT, syscall.SIGTERM)
}

// notifyContext cancels the returned context on the first of sigs and calls exit(1) on the second
func notifyContext(parent context.Context, exit func(code int), sigs ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, sigs...)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal, interrupting export", "signal", sig.String())
		cancel()

		sig = <-sigCh
		signal.Stop(sigCh)
		slog.Warn("received second shutdown signal, forcing exit", "signal", sig.String())
		exit(1)
	}()

	return ctx
}
