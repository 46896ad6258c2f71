package jobs

import "errors"

var (
	// ErrNotFound is returned by state transitions targeting a job that
	// does not exist (e.g. deleted after dispatch).
	ErrNotFound = errors.New("job not found")

	// ErrJobFinal is returned when a transition targets a job already in a
	// terminal status. Processed jobs are final.
	ErrJobFinal = errors.New("job already processed")
)
