package server

import (
	"encoding/json"
	"time"

	"scribe/internal/jobs"
)

// createJobRequest is the POST /api/v1/jobs body.
type createJobRequest struct {
	URL    string          `json:"url"`
	Kind   string          `json:"kind"`
	Config *jobs.JobConfig `json:"config,omitempty"`
}

// jobView is the wire representation of a job.
type jobView struct {
	ID        string          `json:"id"`
	URL       string          `json:"url"`
	Kind      jobs.Kind       `json:"kind"`
	Status    jobs.Status     `json:"status"`
	Config    *jobs.JobConfig `json:"config,omitempty"`
	Meta      jobs.JobMeta    `json:"meta"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newJobView(job *jobs.Job) jobView {
	return jobView{
		ID:        job.ID,
		URL:       job.URL,
		Kind:      job.Kind,
		Status:    job.Status,
		Config:    job.Config,
		Meta:      job.Meta,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

func newJobViews(list []*jobs.Job) []jobView {
	views := make([]jobView, 0, len(list))
	for _, job := range list {
		views = append(views, newJobView(job))
	}
	return views
}

// artifactView is the wire representation of an artifact. Data is the
// stored payload embedded verbatim, not re-encoded.
type artifactView struct {
	ID        string           `json:"id"`
	JobID     string           `json:"job_id"`
	Kind      jobs.ArtifactKind `json:"kind"`
	Data      json.RawMessage  `json:"data"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func newArtifactView(artifact *jobs.Artifact) artifactView {
	return artifactView{
		ID:        artifact.ID,
		JobID:     artifact.JobID,
		Kind:      artifact.Kind,
		Data:      json.RawMessage(artifact.Data),
		CreatedAt: artifact.CreatedAt,
		UpdatedAt: artifact.UpdatedAt,
	}
}
