// Package jobs persists media-processing jobs and their artifacts in SQLite.
//
// The store is the single source of truth for job status. Every mutation from
// the worker engine commits as one transaction per state transition, so a
// reader never observes a processing job without a task id or a successful
// job without its artifact. WAL mode keeps producer reads consistent while a
// worker writes.
package jobs
