package dispatch_test

import (
	"testing"

	"scribe/internal/dispatch"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := dispatch.Message{JobID: "4f9c1d52-0a52-4a8a-9a37-8f5a3f2c1d10"}
	raw, err := msg.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	decoded, err := dispatch.DeserializeMessage(raw)
	if err != nil {
		t.Fatalf("DeserializeMessage failed: %v", err)
	}
	if decoded.JobID != msg.JobID {
		t.Fatalf("expected job id %q, got %q", msg.JobID, decoded.JobID)
	}
}

func TestDeserializeMessageRejectsGarbage(t *testing.T) {
	if _, err := dispatch.DeserializeMessage("not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestDeserializeMessageRejectsEmptyJobID(t *testing.T) {
	if _, err := dispatch.DeserializeMessage(`{"job_id": ""}`); err == nil {
		t.Fatal("expected error for empty job id")
	}
}
