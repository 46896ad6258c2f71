package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/media"
)

// Engine consumes dispatch messages and executes jobs against the store.
// One engine runs per worker process; the strategy it carries is built
// once and reused for every job.
type Engine struct {
	cfg      *config.Config
	store    *jobs.Store
	queue    *dispatch.Queue
	strategy media.Strategy
	logger   *slog.Logger
	consumer string

	// newTaskID is replaced in tests to make task ids deterministic.
	newTaskID func() string
}

// NewEngine constructs an engine. The consumer identity names the worker's
// broker processing list and must be stable across restarts: a replacement
// process reclaims the deliveries its predecessor left behind only by
// draining the same list. It comes from worker.name when configured and
// falls back to the hostname.
func NewEngine(cfg *config.Config, store *jobs.Store, queue *dispatch.Queue, strategy media.Strategy, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     store,
		queue:     queue,
		strategy:  strategy,
		logger:    logging.NewComponentLogger(logger, "engine"),
		consumer:  consumerName(cfg),
		newTaskID: uuid.NewString,
	}
}

func consumerName(cfg *config.Config) string {
	if name := cfg.Worker.Name; name != "" {
		return name
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "worker"
	}
	return hostname
}

// Consumer returns the engine's queue consumer identity.
func (e *Engine) Consumer() string {
	return e.consumer
}

// Run blocks consuming deliveries until the context is cancelled.
// Deliveries orphaned on this consumer's processing list by an earlier
// crash are pushed back onto the main queue before consumption starts.
func (e *Engine) Run(ctx context.Context) error {
	moved, err := e.queue.Recover(ctx, e.consumer)
	if err != nil {
		return fmt.Errorf("recover processing list: %w", err)
	}
	if moved > 0 {
		e.logger.Info("recovered orphaned deliveries", logging.Int("count", moved))
	}
	e.logger.Info("worker started", logging.String("consumer", e.consumer))

	block := time.Duration(e.cfg.Worker.ReceiveBlock) * time.Second
	for {
		if ctx.Err() != nil {
			e.logger.Info("worker stopping")
			return nil
		}
		delivery, err := e.queue.Receive(ctx, e.consumer, block)
		if err != nil {
			if ctx.Err() != nil {
				e.logger.Info("worker stopping")
				return nil
			}
			e.logger.Warn("receive failed", logging.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if delivery == nil {
			continue
		}
		e.handle(ctx, delivery)
	}
}

// handle runs one delivery and acknowledges it after the handler
// returns, whatever the outcome. The only exception is shutdown: an
// interrupted delivery stays on the processing list so the recovery
// pass at next startup redelivers it.
func (e *Engine) handle(ctx context.Context, delivery *dispatch.Delivery) {
	if err := e.Process(ctx, delivery.JobID); err != nil {
		if ctx.Err() != nil {
			return
		}
		e.logger.Error("job handling failed",
			logging.String(logging.FieldJobID, delivery.JobID),
			logging.Error(err))
	}
	if err := delivery.Ack(context.WithoutCancel(ctx)); err != nil {
		e.logger.Warn("acknowledge failed",
			logging.String(logging.FieldJobID, delivery.JobID),
			logging.String(logging.FieldErrorHint, "delivery will be redelivered after restart"),
			logging.Error(err))
	}
}

// Process executes a single job by id. Unknown jobs and jobs already in
// a final status are dropped without side effects, so redelivered
// messages for settled work are harmless.
func (e *Engine) Process(ctx context.Context, jobID string) error {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	if job == nil {
		e.logger.Warn("dropping message for unknown job",
			logging.String(logging.FieldJobID, jobID),
			logging.String(logging.FieldEventType, "unknown_job_dropped"))
		return nil
	}
	if job.Status.IsTerminal() {
		e.logger.Info("job already settled",
			logging.String(logging.FieldJobID, jobID),
			logging.String("status", string(job.Status)),
			logging.String(logging.FieldEventType, "redelivery_ignored"))
		return nil
	}

	ctx = logging.WithJobID(ctx, jobID)
	taskID := e.newTaskID()
	job, err = e.store.MarkProcessing(ctx, jobID, taskID)
	if errors.Is(err, jobs.ErrJobFinal) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	ctx = logging.WithTaskID(ctx, taskID)
	log := logging.WithContext(ctx, e.logger).With(
		logging.String(logging.FieldJobKind, string(job.Kind)),
		logging.Int(logging.FieldAttempt, job.Meta.Attempts))

	if job.Meta.Attempts > e.cfg.Worker.MaxAttempts {
		message := fmt.Sprintf("delivery attempts exhausted after %d tries", job.Meta.Attempts)
		log.Warn("failing repeatedly delivered job",
			logging.String(logging.FieldEventType, "retry_exhausted"))
		return e.fail(ctx, job.ID, message)
	}

	op, ok := media.OperationFor(e.strategy, job.Kind)
	if !ok {
		return e.fail(ctx, job.ID, "unsupported job kind: "+string(job.Kind))
	}

	defer func() {
		if err := e.strategy.Cleanup(job.ID); err != nil {
			log.Warn("cleanup failed", logging.Error(err))
		}
	}()

	log.Info("job started", logging.String(logging.FieldEventType, "job_started"))
	started := time.Now()
	result, err := e.runWithLimits(ctx, op, job)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return err
		}
		log.Error("job failed",
			logging.String(logging.FieldEventType, "job_failed"),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err))
		return e.fail(ctx, job.ID, err.Error())
	}

	if _, err := e.store.CompleteJob(ctx, job.ID, result.Kind, result.Payload); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	log.Info("job succeeded",
		logging.String(logging.FieldEventType, "job_succeeded"),
		logging.String("artifact_kind", string(result.Kind)),
		logging.Duration("elapsed", time.Since(started)))
	return nil
}

// fail records a terminal error on the job. The transition runs without
// the consume context so a failure can still be persisted while the
// worker is shutting down.
func (e *Engine) fail(ctx context.Context, jobID, message string) error {
	if _, err := e.store.FailJob(context.WithoutCancel(ctx), jobID, message); err != nil {
		return fmt.Errorf("record job failure: %w", err)
	}
	return nil
}
