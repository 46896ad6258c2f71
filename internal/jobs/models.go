package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusCreate     Status = "create"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

var allStatuses = []Status{
	StatusCreate,
	StatusProcessing,
	StatusSuccess,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// NonTerminalStatuses returns the statuses eligible for (re)dispatch,
// in state-machine order.
func NonTerminalStatuses() []Status {
	return []Status{StatusCreate, StatusProcessing}
}

// Kind is the requested operation for a job.
type Kind string

const (
	KindTranscribe     Kind = "transcribe"
	KindTranslate      Kind = "translate"
	KindDetectLanguage Kind = "detect_language"
)

var allKinds = []Kind{KindTranscribe, KindTranslate, KindDetectLanguage}

// AllKinds returns the known job kinds.
func AllKinds() []Kind {
	cp := make([]Kind, len(allKinds))
	copy(cp, allKinds)
	return cp
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range allKinds {
		if kind == normalized {
			return kind, true
		}
	}
	return "", false
}

// ArtifactKind identifies the shape of an artifact payload.
type ArtifactKind string

const (
	ArtifactRawTranscript     ArtifactKind = "transcript_raw"
	ArtifactLanguageDetection ArtifactKind = "language_detection"
)

// JobConfig is the typed form of the jobs.config JSON column.
type JobConfig struct {
	// Language is an optional BCP-47 hint for the spoken language in the
	// media file. It can improve model output but is never required.
	Language string `json:"language,omitempty"`
}

// JobMeta is the typed form of the jobs.meta JSON column. It records
// execution bookkeeping owned by the worker engine.
type JobMeta struct {
	// TaskID is the dispatch identifier stamped on the most recent delivery.
	TaskID string `json:"task_id,omitempty"`
	// Attempts counts deliveries of this job to any worker.
	Attempts int `json:"attempts,omitempty"`
	// Error holds a descriptive message when processing failed.
	Error string `json:"error,omitempty"`
}

// Job represents one unit of submitted work persisted in SQLite.
type Job struct {
	ID        string
	URL       string
	Kind      Kind
	Status    Status
	Config    *JobConfig
	Meta      JobMeta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Artifact is the persisted result of a successfully completed job.
type Artifact struct {
	ID        string
	JobID     string
	Kind      ArtifactKind
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}
