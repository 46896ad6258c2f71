package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/jobs"
)

func newQueueCommand(cmdCtx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the dispatch queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(cmdCtx))

	return queueCmd
}

func newQueueStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue depth and job state counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withQueue(func(cfg *config.Config, store *jobs.Store, queue *dispatch.Queue) error {
				out := cmd.OutOrStdout()

				if err := queue.Ping(cmd.Context()); err != nil {
					fmt.Fprintf(out, "Broker %s: unreachable (%v)\n", cfg.Broker.Addr, err)
				} else {
					depth, err := queue.Depth(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Broker %s: %d message(s) waiting\n", cfg.Broker.Addr, depth)
				}

				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"create", fmt.Sprintf("%d", health.Create)},
					{"processing", fmt.Sprintf("%d", health.Processing)},
					{"success", fmt.Sprintf("%d", health.Success)},
					{"error", fmt.Sprintf("%d", health.Error)},
					{"total", fmt.Sprintf("%d", health.Total)},
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Jobs"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}
