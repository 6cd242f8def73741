package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// namedServer is one listener of the portal. The API and the alert stream
// listen separately because streams must not inherit the API write timeout.
type namedServer struct {
	name string
	srv  *http.Server
}

// Start launches every server and returns a channel that is closed once a
// termination signal arrives or the app context is cancelled.
func (a *App) Start() <-chan struct{} {
	for _, s := range a.servers {
		go func() {
			slog.Info("server listening", "name", s.name, "address", s.srv.Addr)
			if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				slog.Error("server stopped unexpectedly", "name", s.name, "error", err)
				os.Exit(1)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		slog.Info("shutdown requested", "because", context.Cause(ctx))
		close(done)
	}()

	return done
}

// Stop cancels the app context so consumers, sweepers and alert streams
// return, drains the servers, waits for background tasks and then releases
// resources in registration order.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	for _, s := range a.servers {
		if err := s.srv.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to shut down server", "name", s.name, "error", err)
		}
	}

	if err := a.goroutine.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.WarnContext(ctx, "background tasks ended with errors", "error", err)
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
		}
	}
	slog.InfoContext(ctx, "application stopped")
}
