package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/media"
)

// runWithLimits executes the operation under the configured time limits.
// The soft limit cancels the operation's context and lets it unwind; the
// hard limit abandons the run outright so a wedged external process can
// never pin the worker. An abandoned goroutine keeps running until its
// context cancellation propagates, but its result is discarded.
func (e *Engine) runWithLimits(ctx context.Context, op media.Operation, job *jobs.Job) (media.Result, error) {
	soft := time.Duration(e.cfg.Worker.SoftTimeLimit) * time.Second
	hard := time.Duration(e.cfg.Worker.HardTimeLimit) * time.Second

	runCtx, cancel := context.WithTimeout(ctx, soft)
	defer cancel()

	type outcome struct {
		result media.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := op(runCtx, job)
		done <- outcome{result: result, err: err}
	}()

	hardTimer := time.NewTimer(hard)
	defer hardTimer.Stop()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return media.Result{}, &media.ProcessingError{
				Message: fmt.Sprintf("soft time limit of %s exceeded", soft),
			}
		}
		return out.result, out.err
	case <-hardTimer.C:
		e.logger.Error("abandoning run past hard time limit",
			logging.String(logging.FieldJobID, job.ID),
			logging.Duration("limit", hard))
		return media.Result{}, &media.ProcessingError{
			Message: fmt.Sprintf("hard time limit of %s exceeded", hard),
		}
	case <-ctx.Done():
		return media.Result{}, ctx.Err()
	}
}
