// Package main hosts the scribe CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the two long-running processes
// (serve for the producer API, work for a queue consumer) plus operator
// commands for job inspection, queue status, and configuration
// scaffolding. It centralizes configuration resolution and store/queue
// wiring so subcommands can focus on user experience.
//
// Keep this package lean: add new functionality to the internal
// packages first, then surface it through dedicated commands or flags
// here.
package main
