// Package worker implements the job execution engine. The engine
// consumes dispatch messages, drives each job through the store's state
// machine, and enforces the per-job time limits.
package worker
