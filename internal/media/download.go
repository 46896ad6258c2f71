package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"scribe/internal/jobs"
)

// jobDir returns the working directory dedicated to a single job.
func (s *LocalStrategy) jobDir(jobID string) string {
	return filepath.Join(s.workDir, jobID)
}

// download fetches the job source into the job's working directory and
// returns the local path.
func (s *LocalStrategy) download(ctx context.Context, job *jobs.Job) (string, error) {
	dir := s.jobDir(job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("download: ensure work dir: %w", err)
	}
	dest := filepath.Join(dir, sourceFileName(job.URL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return "", &ProcessingError{Message: "invalid media url", Err: err}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &ProcessingError{Message: "download media", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &ProcessingError{Message: fmt.Sprintf("download media: unexpected status %d", resp.StatusCode)}
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("download: create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", &ProcessingError{Message: "download media", Err: err}
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("download: close %s: %w", dest, err)
	}
	return dest, nil
}

// sourceFileName derives a stable local name for the media source,
// keeping the URL extension when it has one so whisper can sniff the
// container format.
func sourceFileName(rawURL string) string {
	name := "source"
	if u, err := url.Parse(rawURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 8 {
			name += ext
		}
	}
	return name
}

// Cleanup removes the job's working directory. Removing a directory
// that is already gone is a no-op, so repeated calls are safe.
func (s *LocalStrategy) Cleanup(jobID string) error {
	if jobID == "" {
		return nil
	}
	return os.RemoveAll(s.jobDir(jobID))
}
