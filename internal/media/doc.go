// Package media implements processing strategies for transcription jobs.
// A strategy owns the media lifecycle for a single job run: fetching the
// source, invoking the speech model, and cleaning up working files.
package media
