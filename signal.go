package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// keepaliveSignals routes process signals for a running keepalive. SIGHUP
// lands on reloads, with bursts collapsed into one pending reload. The first
// SIGINT or SIGTERM cancels ctx so the loop can release its lock; a second
// one exits at once. stop releases the handlers and cancels ctx.
func keepaliveSignals(parent context.Context, logger *slog.Logger) (ctx context.Context, reloads <-chan struct{}, stop func()) {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	pending := make(chan struct{}, 1)
	done := make(chan struct{})

	go func() {
		defer signal.Stop(sigs)

		stopping := false

		for {
			select {
			case <-done:
				return
			case <-parent.Done():
				return
			case sig := <-sigs:
				if sig == syscall.SIGHUP {
					select {
					case pending <- struct{}{}:
					default:
					}

					continue
				}

				if stopping {
					logger.Warn("second signal, exiting without cleanup", slog.String("signal", sig.String()))
					os.Exit(1)
				}

				stopping = true

				logger.Info("stopping keepalive", slog.String("signal", sig.String()))
				cancel()
			}
		}
	}()

	var once sync.Once

	return ctx, pending, func() {
		once.Do(func() {
			close(done)
			cancel()
		})
	}
}
