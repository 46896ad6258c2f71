package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/jobs"
)

func newJobsCommand(cmdCtx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage transcription jobs",
	}

	jobsCmd.AddCommand(newJobsSubmitCommand(cmdCtx))
	jobsCmd.AddCommand(newJobsListCommand(cmdCtx))
	jobsCmd.AddCommand(newJobsShowCommand(cmdCtx))
	jobsCmd.AddCommand(newJobsRemoveCommand(cmdCtx))
	jobsCmd.AddCommand(newJobsArtifactsCommand(cmdCtx))

	return jobsCmd
}

func newJobsSubmitCommand(cmdCtx *commandContext) *cobra.Command {
	var kindFlag string
	var languageFlag string

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Submit a media URL for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := jobs.ParseKind(kindFlag)
			if !ok {
				return fmt.Errorf("unknown job kind %q", kindFlag)
			}
			var jobCfg *jobs.JobConfig
			if languageFlag != "" {
				jobCfg = &jobs.JobConfig{Language: languageFlag}
			}
			return cmdCtx.withQueue(func(cfg *config.Config, store *jobs.Store, queue *dispatch.Queue) error {
				job, err := store.NewJob(cmd.Context(), args[0], kind, jobCfg)
				if err != nil {
					return err
				}
				if err := queue.Enqueue(cmd.Context(), job.ID); err != nil {
					if cfg.Broker.EnqueuePolicy == config.EnqueueFail {
						_, _ = store.DeleteJob(cmd.Context(), job.ID)
						return fmt.Errorf("enqueue job: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Broker unavailable; job %s will be dispatched at next producer start\n", job.ID)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s (%s)\n", job.ID, job.Kind)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", string(jobs.KindTranscribe), "Job kind: transcribe, translate, or detect_language")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Spoken-language hint (BCP-47)")
	return cmd
}

func newJobsListCommand(cmdCtx *commandContext) *cobra.Command {
	var kindFlag string
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest last",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter jobs.JobFilter
			if kindFlag != "" {
				kind, ok := jobs.ParseKind(kindFlag)
				if !ok {
					return fmt.Errorf("unknown job kind %q", kindFlag)
				}
				filter.Kinds = append(filter.Kinds, kind)
			}
			if statusFlag != "" {
				status, ok := jobs.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown job status %q (expected one of %s)", statusFlag, statusNames())
				}
				filter.Statuses = append(filter.Statuses, status)
			}
			return cmdCtx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				list, err := store.ListJobs(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, job := range list {
					rows = append(rows, []string{
						job.ID,
						string(job.Kind),
						string(job.Status),
						fmt.Sprintf("%d", job.Meta.Attempts),
						job.CreatedAt.Local().Format(time.RFC3339),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Kind", "Status", "Attempts", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "", "Only list jobs of this kind")
	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Only list jobs with this status ("+statusNames()+")")
	return cmd
}

func statusNames() string {
	statuses := jobs.AllStatuses()
	names := make([]string, len(statuses))
	for i, status := range statuses {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}

func newJobsShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				job, err := store.GetJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %s not found", args[0])
				}
				return printJSON(cmd, map[string]any{
					"id":         job.ID,
					"url":        job.URL,
					"kind":       job.Kind,
					"status":     job.Status,
					"config":     job.Config,
					"meta":       job.Meta,
					"created_at": job.CreatedAt,
					"updated_at": job.UpdatedAt,
				})
			})
		},
	}
}

func newJobsRemoveCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Delete a job and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				deleted, err := store.DeleteJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("job %s not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", args[0])
				return nil
			})
		},
	}
}

func newJobsArtifactsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "artifacts <job-id>",
		Short: "Print a job's artifacts as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				artifacts, err := store.ArtifactsForJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(artifacts) == 0 {
					return fmt.Errorf("no artifacts for job %s", args[0])
				}
				views := make([]map[string]any, 0, len(artifacts))
				for _, artifact := range artifacts {
					views = append(views, map[string]any{
						"id":         artifact.ID,
						"kind":       artifact.Kind,
						"data":       json.RawMessage(artifact.Data),
						"created_at": artifact.CreatedAt,
					})
				}
				return printJSON(cmd, views)
			})
		},
	}
}

func printJSON(cmd *cobra.Command, payload any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
