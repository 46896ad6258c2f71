package media

import (
	"context"

	"scribe/internal/jobs"
)

// Result is the artifact produced by a successful processing run.
type Result struct {
	Kind    jobs.ArtifactKind
	Payload []byte
}

// Strategy performs the media work for a single job. Implementations are
// constructed once per worker process and reused across jobs.
type Strategy interface {
	Transcribe(ctx context.Context, job *jobs.Job) (Result, error)
	Translate(ctx context.Context, job *jobs.Job) (Result, error)
	DetectLanguage(ctx context.Context, job *jobs.Job) (Result, error)
	// Cleanup removes working files created for the job. Calling it for a
	// job that left nothing behind is a no-op.
	Cleanup(jobID string) error
}

// Operation is a single strategy capability bound to a job kind.
type Operation func(ctx context.Context, job *jobs.Job) (Result, error)

// OperationFor resolves the strategy capability that handles the given
// job kind. The second return is false for unknown kinds.
func OperationFor(s Strategy, kind jobs.Kind) (Operation, bool) {
	switch kind {
	case jobs.KindTranscribe:
		return s.Transcribe, true
	case jobs.KindTranslate:
		return s.Translate, true
	case jobs.KindDetectLanguage:
		return s.DetectLanguage, true
	default:
		return nil, false
	}
}
