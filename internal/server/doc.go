// Package server exposes the job service HTTP API. The producer process
// hosts it next to the startup rehydrator; workers never serve HTTP.
package server
