package jobs

import (
	"context"
	"database/sql"
	"fmt"
)

const artifactColumns = "id, job_id, kind, data, created_at, updated_at"

// ArtifactsForJob returns all artifacts belonging to a job in creation order.
// A job that never succeeded has none.
func (s *Store) ArtifactsForJob(ctx context.Context, jobID string) ([]*Artifact, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+artifactColumns+` FROM artifacts WHERE job_id = ? ORDER BY created_at`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*Artifact, error) {
	var (
		id         string
		jobID      string
		kindStr    string
		dataRaw    sql.NullString
		createdRaw string
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(&id, &jobID, &kindStr, &dataRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	artifact := &Artifact{
		ID:    id,
		JobID: jobID,
		Kind:  ArtifactKind(kindStr),
	}
	if dataRaw.Valid {
		artifact.Data = []byte(dataRaw.String)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		artifact.CreatedAt = created
	}
	if updatedRaw.Valid {
		if updated, err := parseTimeString(updatedRaw.String); err == nil {
			artifact.UpdatedAt = updated
		}
	}
	return artifact, nil
}
