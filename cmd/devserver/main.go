// Command devserver is a minimal chat relay speaking the client wire
// protocol. It exists for local runs and integration tests.
package main

import (
	"context"
	"errors"
	"fmt"
	"kaychat/devserver"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := devserver.NewHub(log)
	hubDone := make(chan error, 1)
	go func() { hubDone <- hub.Run(ctx) }()

	mux := http.NewServeMux()
	mux.Handle(config.Path, hub)
	server := &http.Server{Addr: config.Addr, Handler: mux}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Dev server listening", "addr", config.Addr, "path", config.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			stop()
			<-hubDone
			return fmt.Errorf("listen on %s: %w", config.Addr, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown incomplete", "error", err)
	}
	stop()
	return <-hubDone
}
