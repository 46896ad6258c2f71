package worker_test

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/testsupport"
	"scribe/internal/worker"
)

type stubStrategy struct {
	mu       sync.Mutex
	calls    int
	cleanups []string
	run      func(ctx context.Context, job *jobs.Job) (media.Result, error)
}

func (s *stubStrategy) invoke(ctx context.Context, job *jobs.Job) (media.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.run(ctx, job)
}

func (s *stubStrategy) Transcribe(ctx context.Context, job *jobs.Job) (media.Result, error) {
	return s.invoke(ctx, job)
}

func (s *stubStrategy) Translate(ctx context.Context, job *jobs.Job) (media.Result, error) {
	return s.invoke(ctx, job)
}

func (s *stubStrategy) DetectLanguage(ctx context.Context, job *jobs.Job) (media.Result, error) {
	return s.invoke(ctx, job)
}

func (s *stubStrategy) Cleanup(jobID string) error {
	s.mu.Lock()
	s.cleanups = append(s.cleanups, jobID)
	s.mu.Unlock()
	return nil
}

func (s *stubStrategy) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func transcriptResult(t *testing.T, text string) media.Result {
	t.Helper()
	payload, err := jobs.EncodeTranscript([]jobs.TranscriptSegment{{Text: text, End: 1}})
	if err != nil {
		t.Fatalf("EncodeTranscript failed: %v", err)
	}
	return media.Result{Kind: jobs.ArtifactRawTranscript, Payload: payload}
}

func newTestEngine(t *testing.T, cfg *config.Config, store *jobs.Store, strategy media.Strategy) *worker.Engine {
	t.Helper()
	queue := dispatch.New(cfg)
	t.Cleanup(func() { queue.Close() })
	return worker.NewEngine(cfg, store, queue, strategy, logging.NewNop())
}

func TestProcessHappyPathStoresArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)

	strategy := &stubStrategy{run: func(ctx context.Context, job *jobs.Job) (media.Result, error) {
		return transcriptResult(t, "hello"), nil
	}}
	engine := newTestEngine(t, cfg, store, strategy)

	if err := engine.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	fetched, err := store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != jobs.StatusSuccess {
		t.Fatalf("expected success, got %s", fetched.Status)
	}
	if fetched.Meta.TaskID == "" || fetched.Meta.Attempts != 1 {
		t.Fatalf("unexpected meta: %#v", fetched.Meta)
	}

	artifacts, err := store.ArtifactsForJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("ArtifactsForJob failed: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].Kind != jobs.ArtifactRawTranscript {
		t.Fatalf("expected one transcript artifact, got %#v", artifacts)
	}
	if len(strategy.cleanups) != 1 || strategy.cleanups[0] != job.ID {
		t.Fatalf("expected cleanup for job, got %v", strategy.cleanups)
	}
}

func TestProcessFailureRecordsErrorMessage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranslate)

	strategy := &stubStrategy{run: func(ctx context.Context, job *jobs.Job) (media.Result, error) {
		return media.Result{}, &media.ProcessingError{Message: "download media: unexpected status 404"}
	}}
	engine := newTestEngine(t, cfg, store, strategy)

	if err := engine.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	fetched, err := store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", fetched.Status)
	}
	if fetched.Meta.Error != "download media: unexpected status 404" {
		t.Fatalf("unexpected meta error: %q", fetched.Meta.Error)
	}

	artifacts, err := store.ArtifactsForJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("ArtifactsForJob failed: %v", err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("failed job must have no artifacts, got %d", len(artifacts))
	}
	if len(strategy.cleanups) != 1 {
		t.Fatalf("expected cleanup after failure, got %v", strategy.cleanups)
	}
}

func TestProcessUnknownJobIsDropped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	strategy := &stubStrategy{run: func(ctx context.Context, job *jobs.Job) (media.Result, error) {
		return media.Result{}, nil
	}}
	engine := newTestEngine(t, cfg, store, strategy)

	if err := engine.Process(context.Background(), "no-such-job"); err != nil {
		t.Fatalf("expected unknown job to be dropped quietly, got %v", err)
	}
	if strategy.callCount() != 0 {
		t.Fatal("strategy must not run for unknown jobs")
	}
}

func TestProcessSettledJobIsNoOp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)

	payload, _ := jobs.EncodeTranscript(nil)
	if _, err := store.CompleteJob(ctx, job.ID, jobs.ArtifactRawTranscript, payload); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}

	strategy := &stubStrategy{run: func(ctx context.Context, job *jobs.Job) (media.Result, error) {
		return media.Result{}, nil
	}}
	engine := newTestEngine(t, cfg, store, strategy)

	// Redelivery of a settled job must change nothing.
	if err := engine.Process(ctx, job.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if strategy.callCount() != 0 {
		t.Fatal("strategy must not run for settled jobs")
	}

	fetched, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != jobs.StatusSuccess {
		t.Fatalf("status must stay success, got %s", fetched.Status)
	}
	artifacts, err := store.ArtifactsForJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("ArtifactsForJob failed: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected exactly one artifact, got %d", len(artifacts))
	}
}

func TestProcessThirdDeliveryExhaustsRetries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)

	// Two deliveries already burned, e.g. by workers that died mid-run.
	for i, taskID := range []string{"task-1", "task-2"} {
		if _, err := store.MarkProcessing(ctx, job.ID, taskID); err != nil {
			t.Fatalf("MarkProcessing %d failed: %v", i+1, err)
		}
	}

	strategy := &stubStrategy{run: func(ctx context.Context, job *jobs.Job) (media.Result, error) {
		return transcriptResult(t, "should never run"), nil
	}}
	engine := newTestEngine(t, cfg, store, strategy)

	if err := engine.Process(ctx, job.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if strategy.callCount() != 0 {
		t.Fatal("strategy must not run once attempts are exhausted")
	}

	fetched, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", fetched.Status)
	}
	if !strings.Contains(fetched.Meta.Error, "exhausted") {
		t.Fatalf("expected exhaustion message, got %q", fetched.Meta.Error)
	}
	if fetched.Meta.Attempts != 3 {
		t.Fatalf("expected 3 recorded attempts, got %d", fetched.Meta.Attempts)
	}
}

func TestSoftTimeLimitFailsJob(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTimeLimits(1, 10))
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)

	strategy := &stubStrategy{run: func(ctx context.Context, job *jobs.Job) (media.Result, error) {
		<-ctx.Done()
		return media.Result{}, ctx.Err()
	}}
	engine := newTestEngine(t, cfg, store, strategy)

	if err := engine.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	fetched, err := store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", fetched.Status)
	}
	if !strings.Contains(fetched.Meta.Error, "soft time limit") {
		t.Fatalf("expected soft limit message, got %q", fetched.Meta.Error)
	}
}

func TestHardTimeLimitAbandonsWedgedRun(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTimeLimits(1, 2))
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)

	// Ignores cancellation entirely, like an external process that will
	// not die.
	strategy := &stubStrategy{run: func(ctx context.Context, job *jobs.Job) (media.Result, error) {
		time.Sleep(4 * time.Second)
		return transcriptResult(t, "too late"), nil
	}}
	engine := newTestEngine(t, cfg, store, strategy)

	start := time.Now()
	if err := engine.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 4*time.Second {
		t.Fatalf("run was not abandoned at the hard limit, took %s", elapsed)
	}

	fetched, err := store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", fetched.Status)
	}
	if !strings.Contains(fetched.Meta.Error, "hard time limit") {
		t.Fatalf("expected hard limit message, got %q", fetched.Meta.Error)
	}
}

func TestConsumerIdentityIsStableAcrossRestarts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	strategy := &stubStrategy{}

	first := newTestEngine(t, cfg, store, strategy)
	second := newTestEngine(t, cfg, store, strategy)
	if first.Consumer() != second.Consumer() {
		t.Fatalf("consumer identity changed between processes: %q vs %q", first.Consumer(), second.Consumer())
	}
	if pid := strconv.Itoa(os.Getpid()); strings.Contains(first.Consumer(), pid) {
		t.Fatalf("consumer identity %q embeds the pid; a replacement worker could never reclaim its processing list", first.Consumer())
	}
}

func TestConsumerIdentityHonorsConfiguredName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Worker.Name = "transcoder-2"
	store := testsupport.MustOpenStore(t, cfg)

	engine := newTestEngine(t, cfg, store, &stubStrategy{})
	if got := engine.Consumer(); got != "transcoder-2" {
		t.Fatalf("expected configured consumer name, got %q", got)
	}
}
