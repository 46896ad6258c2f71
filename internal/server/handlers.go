package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/logging"
)

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	kind, ok := jobs.ParseKind(req.Kind)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown job kind: "+req.Kind)
		return
	}
	if err := jobs.ValidateConfig(req.Config); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.store.NewJob(r.Context(), req.URL, kind, req.Config)
	if err != nil {
		s.logger.Error("create job failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not create job")
		return
	}

	if err := s.queue.Enqueue(r.Context(), job.ID); err != nil {
		s.logger.Error("enqueue failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err))
		if s.enqueuePolicy == config.EnqueueFail {
			if _, derr := s.store.DeleteJob(r.Context(), job.ID); derr != nil {
				s.logger.Error("rollback of unenqueued job failed",
					logging.String(logging.FieldJobID, job.ID),
					logging.Error(derr))
			}
			s.writeError(w, http.StatusBadGateway, "job could not be enqueued")
			return
		}
		// Policy "leave": the stored job stays in status create and is
		// dispatched by the next startup rehydration pass.
		s.logger.Warn("job left for rehydration",
			logging.String(logging.FieldJobID, job.ID))
	}

	s.writeJSON(w, http.StatusCreated, newJobView(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var filter jobs.JobFilter
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, ok := jobs.ParseKind(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown job kind: "+raw)
			return
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := jobs.ParseStatus(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown job status: "+raw)
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	list, err := s.store.ListJobs(r.Context(), filter)
	if err != nil {
		s.logger.Error("list jobs failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not list jobs")
		return
	}
	s.writeJSON(w, http.StatusOK, newJobViews(list))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.logger.Error("get job failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not load job")
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, newJobView(job))
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := s.store.DeleteJob(r.Context(), id)
	if err != nil {
		s.logger.Error("delete job failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not delete job")
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJobArtifacts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.logger.Error("get job failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not load job")
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	artifacts, err := s.store.ArtifactsForJob(r.Context(), id)
	if err != nil {
		s.logger.Error("list artifacts failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "could not load artifacts")
		return
	}
	if len(artifacts) == 0 {
		s.writeError(w, http.StatusNotFound, "no artifacts for job")
		return
	}

	views := make([]artifactView, 0, len(artifacts))
	for _, artifact := range artifacts {
		views = append(views, newArtifactView(artifact))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Health(r.Context())
	if err != nil {
		s.logger.Error("health query failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}
