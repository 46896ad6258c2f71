package media

// ProcessingError is a processing failure whose message is meant for the
// job record. The message is recorded on the job when the run fails, so
// it should describe what went wrong without leaking host paths or
// command lines.
type ProcessingError struct {
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProcessingError) Unwrap() error { return e.Err }
