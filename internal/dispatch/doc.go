// Package dispatch delivers "process this job" messages from the producer
// to worker processes over a Redis list.
//
// Messages are pointers, not payloads: they name a job id and nothing else.
// Receive parks each delivery on a per-consumer processing list until the
// handler acks it, which gives at-least-once, late-acknowledgement delivery.
// Anything stronger (dedup, ordering, exactly-once completion) is the job
// store's state machine, not the broker's.
package dispatch
