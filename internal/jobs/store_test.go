package jobs_test

import (
	"context"
	"testing"
	"time"

	"scribe/internal/jobs"
	"scribe/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewJob(ctx, "https://example.com/audio.mp3", jobs.KindTranscribe, nil)
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Status != jobs.StatusCreate {
		t.Fatalf("expected status create, got %s", job.Status)
	}
	if job.Meta.Attempts != 0 {
		t.Fatalf("expected zero attempts, got %d", job.Meta.Attempts)
	}

	fetched, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched == nil || fetched.URL != "https://example.com/audio.mp3" {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}
}

func TestNewJobRejectsUnknownKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.NewJob(context.Background(), "https://example.com/a.mp3", jobs.Kind("summarize"), nil); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestNewJobRejectsInvalidLanguage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	cfgVal := &jobs.JobConfig{Language: "not a language tag"}
	if _, err := store.NewJob(context.Background(), "https://example.com/a.mp3", jobs.KindTranscribe, cfgVal); err == nil {
		t.Fatal("expected error for invalid language hint")
	}
}

func TestGetJobMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.GetJob(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil for missing job, got %#v", job)
	}
}

func TestMarkProcessingStampsTaskAndAttempts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)

	updated, err := store.MarkProcessing(ctx, job.ID, "task-1")
	if err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if updated.Status != jobs.StatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}
	if updated.Meta.TaskID != "task-1" || updated.Meta.Attempts != 1 {
		t.Fatalf("unexpected meta: %#v", updated.Meta)
	}

	// A redelivery stamps a fresh task id and bumps the counter.
	updated, err = store.MarkProcessing(ctx, job.ID, "task-2")
	if err != nil {
		t.Fatalf("second MarkProcessing failed: %v", err)
	}
	if updated.Meta.TaskID != "task-2" || updated.Meta.Attempts != 2 {
		t.Fatalf("unexpected meta after redelivery: %#v", updated.Meta)
	}
}

func TestMarkProcessingRefusesTerminalJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)
	if _, err := store.FailJob(ctx, job.ID, "boom"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	if _, err := store.MarkProcessing(ctx, job.ID, "task-1"); err != jobs.ErrJobFinal {
		t.Fatalf("expected ErrJobFinal, got %v", err)
	}
}

func TestCompleteJobStoresArtifactAndStatusTogether(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)
	if _, err := store.MarkProcessing(ctx, job.ID, "task-1"); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}

	payload, err := jobs.EncodeTranscript([]jobs.TranscriptSegment{{ID: 0, Text: "hello world", End: 2.5}})
	if err != nil {
		t.Fatalf("EncodeTranscript failed: %v", err)
	}
	artifact, err := store.CompleteJob(ctx, job.ID, jobs.ArtifactRawTranscript, payload)
	if err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}
	if artifact.JobID != job.ID || artifact.Kind != jobs.ArtifactRawTranscript {
		t.Fatalf("unexpected artifact: %#v", artifact)
	}

	fetched, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != jobs.StatusSuccess {
		t.Fatalf("expected success, got %s", fetched.Status)
	}

	artifacts, err := store.ArtifactsForJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("ArtifactsForJob failed: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected exactly one artifact, got %d", len(artifacts))
	}
}

func TestCompleteJobRejectsInvalidPayload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)
	if _, err := store.CompleteJob(ctx, job.ID, jobs.ArtifactRawTranscript, []byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}

	fetched, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Status != jobs.StatusCreate {
		t.Fatalf("status should be untouched, got %s", fetched.Status)
	}
}

func TestCompleteJobRefusesTerminalJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)
	if _, err := store.FailJob(ctx, job.ID, "boom"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	payload, _ := jobs.EncodeTranscript(nil)
	if _, err := store.CompleteJob(ctx, job.ID, jobs.ArtifactRawTranscript, payload); err != jobs.ErrJobFinal {
		t.Fatalf("expected ErrJobFinal, got %v", err)
	}

	artifacts, err := store.ArtifactsForJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("ArtifactsForJob failed: %v", err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("failed job must have no artifacts, got %d", len(artifacts))
	}
}

func TestFailJobRecordsMessageAndKeepsMeta(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindTranscribe)
	if _, err := store.MarkProcessing(ctx, job.ID, "task-1"); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}

	failed, err := store.FailJob(ctx, job.ID, "download media: unexpected status 404")
	if err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}
	if failed.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", failed.Status)
	}
	if failed.Meta.Error != "download media: unexpected status 404" {
		t.Fatalf("unexpected meta error: %q", failed.Meta.Error)
	}
	if failed.Meta.TaskID != "task-1" || failed.Meta.Attempts != 1 {
		t.Fatalf("existing meta should survive failure: %#v", failed.Meta)
	}
}

func TestJobsByStatusesOrdersOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewJob(t, store, "https://example.com/1.mp3", jobs.KindTranscribe)
	time.Sleep(5 * time.Millisecond)
	second := testsupport.NewJob(t, store, "https://example.com/2.mp3", jobs.KindTranslate)
	time.Sleep(5 * time.Millisecond)
	done := testsupport.NewJob(t, store, "https://example.com/3.mp3", jobs.KindTranscribe)
	if _, err := store.FailJob(ctx, done.ID, "boom"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	unsettled, err := store.JobsByStatuses(ctx, jobs.NonTerminalStatuses()...)
	if err != nil {
		t.Fatalf("JobsByStatuses failed: %v", err)
	}
	if len(unsettled) != 2 {
		t.Fatalf("expected 2 unsettled jobs, got %d", len(unsettled))
	}
	if unsettled[0].ID != first.ID || unsettled[1].ID != second.ID {
		t.Fatalf("expected oldest-first ordering, got %s then %s", unsettled[0].ID, unsettled[1].ID)
	}
}

func TestListJobsFiltersByKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewJob(t, store, "https://example.com/1.mp3", jobs.KindTranscribe)
	translate := testsupport.NewJob(t, store, "https://example.com/2.mp3", jobs.KindTranslate)

	list, err := store.ListJobs(ctx, jobs.JobFilter{Kinds: []jobs.Kind{jobs.KindTranslate}})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != translate.ID {
		t.Fatalf("unexpected filtered list: %#v", list)
	}
}

func TestListJobsFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	pending := testsupport.NewJob(t, store, "https://example.com/1.mp3", jobs.KindTranscribe)
	failed := testsupport.NewJob(t, store, "https://example.com/2.mp3", jobs.KindTranscribe)
	if _, err := store.MarkProcessing(ctx, failed.ID, "task-1"); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if _, err := store.FailJob(ctx, failed.ID, "boom"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	list, err := store.ListJobs(ctx, jobs.JobFilter{Statuses: []jobs.Status{jobs.StatusError}})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != failed.ID {
		t.Fatalf("unexpected status-filtered list: %#v", list)
	}

	list, err = store.ListJobs(ctx, jobs.JobFilter{
		Kinds:    []jobs.Kind{jobs.KindTranscribe},
		Statuses: []jobs.Status{jobs.StatusCreate},
	})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != pending.ID {
		t.Fatalf("unexpected combined-filter list: %#v", list)
	}
}

func TestDeleteJobCascadesArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "https://example.com/a.mp3", jobs.KindDetectLanguage)
	payload, err := jobs.EncodeLanguageDetection(jobs.LanguageDetection{Code: "de"})
	if err != nil {
		t.Fatalf("EncodeLanguageDetection failed: %v", err)
	}
	if _, err := store.CompleteJob(ctx, job.ID, jobs.ArtifactLanguageDetection, payload); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}

	deleted, err := store.DeleteJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	if !deleted {
		t.Fatal("expected job to be deleted")
	}

	artifacts, err := store.ArtifactsForJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("ArtifactsForJob failed: %v", err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("expected artifacts removed with job, got %d", len(artifacts))
	}
}

func TestHealthCountsPerStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewJob(t, store, "https://example.com/1.mp3", jobs.KindTranscribe)
	processing := testsupport.NewJob(t, store, "https://example.com/2.mp3", jobs.KindTranscribe)
	if _, err := store.MarkProcessing(ctx, processing.ID, "task-1"); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	failed := testsupport.NewJob(t, store, "https://example.com/3.mp3", jobs.KindTranscribe)
	if _, err := store.FailJob(ctx, failed.ID, "boom"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 3 || health.Create != 1 || health.Processing != 1 || health.Error != 1 || health.Success != 0 {
		t.Fatalf("unexpected health summary: %#v", health)
	}
}
