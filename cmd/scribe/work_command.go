package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/worker"
)

func newWorkCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "work",
		Short: "Run a worker consuming jobs from the dispatch queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			return runWork(cmd.Context(), cfg)
		},
	}
}

func runWork(parent context.Context, cfg *config.Config) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

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
		return fmt.Errorf("broker unreachable: %w", err)
	}

	strategy := media.NewLocalStrategy(cfg, logger)
	engine := worker.NewEngine(cfg, store, queue, strategy, logger)
	if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("worker stopped")
	return nil
}
