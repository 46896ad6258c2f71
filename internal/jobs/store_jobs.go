package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewJob inserts a job in status create and returns the stored row.
// The config, when present, is validated before anything touches disk.
func (s *Store) NewJob(ctx context.Context, url string, kind Kind, cfg *JobConfig) (*Job, error) {
	if _, ok := ParseKind(string(kind)); !ok {
		return nil, fmt.Errorf("unknown job kind %q", kind)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	configValue, err := encodeConfig(cfg)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(timeFormat)

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO jobs (id, url, kind, status, config, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		url,
		kind,
		StatusCreate,
		configValue,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.GetJob(ctx, id)
}

// GetJob fetches a job by identifier. Returns nil when no job exists.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// JobFilter narrows a job listing. Empty fields match everything.
type JobFilter struct {
	Kinds    []Kind
	Statuses []Status
}

// ListJobs returns jobs matching the filter, ordered by creation time.
func (s *Store) ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var clauses []string
	var args []any

	if len(filter.Kinds) > 0 {
		clauses = append(clauses, `kind IN (`+makePlaceholders(len(filter.Kinds))+`)`)
		for _, kind := range filter.Kinds {
			args = append(args, kind)
		}
	}
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, `status IN (`+makePlaceholders(len(filter.Statuses))+`)`)
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// JobsByStatuses returns jobs matching any of the provided statuses, oldest
// first. The rehydrator depends on this ordering to preserve approximate
// FIFO fairness across a restart.
func (s *Store) JobsByStatuses(ctx context.Context, statuses ...Status) ([]*Job, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs WHERE status IN (`+placeholders+`) ORDER BY created_at`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query jobs by status: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// DeleteJob removes a job and, via cascade, its artifacts.
func (s *Store) DeleteJob(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total      int `json:"total"`
	Create     int `json:"create"`
	Processing int `json:"processing"`
	Success    int `json:"success"`
	Error      int `json:"error"`
}

// Health aggregates job state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusCreate:
			health.Create += count
		case StatusProcessing:
			health.Processing += count
		case StatusSuccess:
			health.Success += count
		case StatusError:
			health.Error += count
		}
	}
	return health, nil
}

func collectJobs(rows *sql.Rows) ([]*Job, error) {
	var items []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, job)
	}
	return items, rows.Err()
}
