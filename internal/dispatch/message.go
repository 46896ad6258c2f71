package dispatch

import (
	"encoding/json"
	"fmt"
)

// Message is the transient payload delivered through the broker. It carries
// the job id only; workers re-read all other state from the job store so
// redelivery always observes current state rather than a stale snapshot.
type Message struct {
	JobID string `json:"job_id"`
}

// Serialize encodes a message for transport.
func (m Message) Serialize() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("serialize message: %w", err)
	}
	return string(data), nil
}

// DeserializeMessage decodes a message received from the broker.
func DeserializeMessage(raw string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return Message{}, fmt.Errorf("deserialize message: %w", err)
	}
	if msg.JobID == "" {
		return Message{}, fmt.Errorf("deserialize message: missing job id")
	}
	return msg, nil
}
