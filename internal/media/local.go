package media

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/logging"
)

// LocalStrategy runs jobs on the worker host: the source is downloaded
// into a job-scoped working directory and fed through the whisper CLI.
type LocalStrategy struct {
	workDir    string
	runner     *whisperRunner
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLocalStrategy builds a strategy from the worker configuration.
func NewLocalStrategy(cfg *config.Config, logger *slog.Logger) *LocalStrategy {
	return &LocalStrategy{
		workDir:    cfg.Paths.WorkDir,
		runner:     newWhisperRunner(cfg.Whisper),
		httpClient: &http.Client{Timeout: 15 * time.Minute},
		logger:     logging.NewComponentLogger(logger, "strategy"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *LocalStrategy) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.runner.commandRunner = runner
}

// WithHTTPClient replaces the download client (for testing).
func (s *LocalStrategy) WithHTTPClient(client *http.Client) {
	s.httpClient = client
}

// Transcribe produces a raw transcript artifact in the source language.
func (s *LocalStrategy) Transcribe(ctx context.Context, job *jobs.Job) (Result, error) {
	return s.transcribe(ctx, job, taskTranscribe)
}

// Translate produces a raw transcript artifact translated to English.
func (s *LocalStrategy) Translate(ctx context.Context, job *jobs.Job) (Result, error) {
	return s.transcribe(ctx, job, taskTranslate)
}

func (s *LocalStrategy) transcribe(ctx context.Context, job *jobs.Job, task string) (Result, error) {
	source, err := s.download(ctx, job)
	if err != nil {
		return Result{}, err
	}
	out, err := s.runner.Transcribe(ctx, source, s.jobDir(job.ID), task, languageHint(job))
	if err != nil {
		return Result{}, err
	}
	payload, err := jobs.EncodeTranscript(out.Segments)
	if err != nil {
		return Result{}, &ProcessingError{Message: "encode transcript", Err: err}
	}
	logging.WithContext(ctx, s.logger).Info("whisper run finished",
		logging.String("task", task),
		logging.Int("segments", len(out.Segments)))
	return Result{Kind: jobs.ArtifactRawTranscript, Payload: payload}, nil
}

func languageHint(job *jobs.Job) string {
	if job.Config == nil {
		return ""
	}
	return job.Config.Language
}

// DetectLanguage identifies the spoken language of the source. Whisper
// reports the detected language as part of a transcription run, so the
// job runs without a language hint and only the detection is kept.
func (s *LocalStrategy) DetectLanguage(ctx context.Context, job *jobs.Job) (Result, error) {
	source, err := s.download(ctx, job)
	if err != nil {
		return Result{}, err
	}
	out, err := s.runner.Transcribe(ctx, source, s.jobDir(job.ID), taskTranscribe, "")
	if err != nil {
		return Result{}, err
	}
	if out.Language == "" {
		return Result{}, &ProcessingError{Message: "whisper reported no language"}
	}
	payload, err := jobs.EncodeLanguageDetection(jobs.LanguageDetection{Code: out.Language})
	if err != nil {
		return Result{}, &ProcessingError{Message: "encode language detection", Err: err}
	}
	logging.WithContext(ctx, s.logger).Info("language detected",
		logging.String("language", out.Language))
	return Result{Kind: jobs.ArtifactLanguageDetection, Payload: payload}, nil
}
