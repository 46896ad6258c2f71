package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Each transition below commits as one transaction so readers never observe
// a half-applied state: a processing job always carries a task id, and a
// successful job always has its artifact.

func getJobTx(ctx context.Context, tx *sql.Tx, id string) (*Job, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func updateJobTx(ctx context.Context, tx *sql.Tx, job *Job) error {
	metaValue, err := encodeMeta(job.Meta)
	if err != nil {
		return err
	}
	job.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, meta = ?, updated_at = ? WHERE id = ?`,
		job.Status,
		metaValue,
		job.UpdatedAt.Format(timeFormat),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// MarkProcessing transitions a job to processing, stamping a fresh task id
// and incrementing the delivery attempt counter. The commit happens before
// any heavy work starts, so "work has begun" is visible regardless of
// whether the work ever finishes. Terminal jobs return ErrJobFinal.
func (s *Store) MarkProcessing(ctx context.Context, id, taskID string) (*Job, error) {
	var job *Job
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getJobTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return ErrJobFinal
		}
		current.Status = StatusProcessing
		current.Meta.TaskID = taskID
		current.Meta.Attempts++
		if err := updateJobTx(ctx, tx, current); err != nil {
			return err
		}
		job = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// CompleteJob persists an artifact and the success status in one unit of
// work. A job that is already terminal is left untouched.
func (s *Store) CompleteJob(ctx context.Context, jobID string, kind ArtifactKind, payload []byte) (*Artifact, error) {
	if err := ValidatePayload(kind, payload); err != nil {
		return nil, err
	}

	var artifact *Artifact
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		job, err := getJobTx(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if job.Status.IsTerminal() {
			return ErrJobFinal
		}

		now := time.Now().UTC()
		created := &Artifact{
			ID:        uuid.NewString(),
			JobID:     jobID,
			Kind:      kind,
			Data:      payload,
			CreatedAt: now,
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO artifacts (id, job_id, kind, data, created_at) VALUES (?, ?, ?, ?, ?)`,
			created.ID,
			created.JobID,
			created.Kind,
			string(created.Data),
			now.Format(timeFormat),
		); err != nil {
			return fmt.Errorf("insert artifact: %w", err)
		}

		job.Status = StatusSuccess
		if err := updateJobTx(ctx, tx, job); err != nil {
			return err
		}
		artifact = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// FailJob records a descriptive error in the job meta (preserving prior
// metadata) and moves the job to its terminal error status.
func (s *Store) FailJob(ctx context.Context, jobID, message string) (*Job, error) {
	var job *Job
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getJobTx(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return ErrJobFinal
		}
		current.Status = StatusError
		current.Meta.Error = message
		if err := updateJobTx(ctx, tx, current); err != nil {
			return err
		}
		job = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}
