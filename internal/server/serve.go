package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Serve accepts connections on srv until ctx is cancelled or the process
// receives SIGINT or SIGTERM. In-flight requests are then given
// shutdownTimeout to complete before the hooks run with the same deadline.
// The hooks also run when the server cannot start or stops on its own.
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, hooks *ShutdownHooks) error {
	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		runHooks(hooks, shutdownTimeout)
		return fmt.Errorf("listen on %s failed: %w", srv.Addr, err)
	}

	return serveListener(ctx, srv, listener, shutdownTimeout, hooks)
}

func serveListener(ctx context.Context, srv *http.Server, listener net.Listener, shutdownTimeout time.Duration, hooks *ShutdownHooks) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", listener.Addr().String()).Msg("server starting")
		serveErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		runHooks(hooks, shutdownTimeout)
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown requested, draining requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("server shutdown did not complete cleanly")
	}

	if hooks != nil {
		hooks.Execute(shutdownCtx)
	}

	log.Info().Msg("server shutdown complete")

	return shutdownErr
}

func runHooks(hooks *ShutdownHooks, timeout time.Duration) {
	if hooks == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	hooks.Execute(ctx)
}
