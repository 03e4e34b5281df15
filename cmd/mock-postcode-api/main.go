// Command mock-postcode-api serves fixed postcode fixtures for local runs:
// CR0 2EU returns two addresses, BN25 1XY returns none.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"addresslookup/internal/addresslookup/lookup/lookuptest"
	"addresslookup/internal/platform/config"
	"addresslookup/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config.MockAPI
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	var opts []lookuptest.Option
	if cfg.Authorization != "" {
		opts = append(opts, lookuptest.WithAuthorization(cfg.Authorization))
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           lookuptest.Router(cfg.Path, lookuptest.NewAPI(opts...)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting mock postcode api", "addr", cfg.Addr, "path", cfg.Path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
