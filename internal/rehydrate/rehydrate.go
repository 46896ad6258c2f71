// Package rehydrate re-enqueues unsettled jobs at producer startup.
// Jobs can be stranded without a queue message when the broker was down
// at submission time, lost its state, or a worker died mid-run; pushing
// every non-final job back onto the queue at boot makes the store the
// source of truth and the queue merely a delivery channel.
package rehydrate

import (
	"context"
	"fmt"
	"log/slog"

	"scribe/internal/jobs"
	"scribe/internal/logging"
)

// Enqueuer pushes a job id onto the dispatch queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID string) error
}

// Rehydrator scans the store for unsettled jobs and enqueues them.
type Rehydrator struct {
	store  *jobs.Store
	queue  Enqueuer
	logger *slog.Logger
}

func New(store *jobs.Store, queue Enqueuer, logger *slog.Logger) *Rehydrator {
	return &Rehydrator{
		store:  store,
		queue:  queue,
		logger: logging.NewComponentLogger(logger, "rehydrate"),
	}
}

// Run enqueues every job still in a non-final status, oldest first, and
// returns how many were enqueued. Workers treat redelivery of settled
// jobs as a no-op, so enqueueing a job that already has a live message
// is safe; the worst case is one wasted delivery.
func (r *Rehydrator) Run(ctx context.Context) (int, error) {
	unsettled, err := r.store.JobsByStatuses(ctx, jobs.NonTerminalStatuses()...)
	if err != nil {
		return 0, fmt.Errorf("rehydrate: scan unsettled jobs: %w", err)
	}
	if len(unsettled) == 0 {
		r.logger.Info("no unsettled jobs to rehydrate")
		return 0, nil
	}

	enqueued := 0
	for _, job := range unsettled {
		if err := r.queue.Enqueue(ctx, job.ID); err != nil {
			return enqueued, fmt.Errorf("rehydrate job %s: %w", job.ID, err)
		}
		r.logger.Info("re-enqueued unsettled job",
			logging.String(logging.FieldJobID, job.ID),
			logging.String("status", string(job.Status)))
		enqueued++
	}
	r.logger.Info("rehydration finished", logging.Int("enqueued", enqueued))
	return enqueued, nil
}
