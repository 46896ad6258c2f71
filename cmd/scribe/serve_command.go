package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/rehydrate"
	"scribe/internal/server"
)

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the producer: HTTP API plus startup rehydration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	// One producer per data directory; two rehydrators racing would
	// double-enqueue every unsettled job.
	lockPath := filepath.Join(cfg.Paths.LogDir, "scribe-serve.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another scribe producer is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release lock failed", logging.Error(err))
		}
	}()

	store, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	queue := dispatch.New(cfg)
	defer queue.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := queue.Ping(ctx); err != nil {
		logger.Warn("broker unreachable at startup",
			logging.String(logging.FieldErrorHint, "check broker.addr; unsettled jobs are rehydrated at next boot"),
			logging.Error(err))
	} else if _, err := rehydrate.New(store, queue, logger).Run(ctx); err != nil {
		logger.Error("rehydration failed", logging.Error(err))
	}

	api := server.New(cfg, store, queue, logger)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- api.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api: %w", err)
	}
	return nil
}
