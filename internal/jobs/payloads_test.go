package jobs_test

import (
	"testing"

	"scribe/internal/jobs"
)

func TestValidateConfigAcceptsLanguageTags(t *testing.T) {
	cases := []string{"", "en", "de-DE", "pt-BR"}
	for _, tag := range cases {
		cfg := &jobs.JobConfig{Language: tag}
		if err := jobs.ValidateConfig(cfg); err != nil {
			t.Fatalf("ValidateConfig(%q) failed: %v", tag, err)
		}
	}
}

func TestValidateConfigRejectsGarbageTag(t *testing.T) {
	cfg := &jobs.JobConfig{Language: "!!not-a-tag!!"}
	if err := jobs.ValidateConfig(cfg); err == nil {
		t.Fatal("expected error for invalid language tag")
	}
}

func TestTranscriptRoundTripKeepsSegmentFields(t *testing.T) {
	segments := []jobs.TranscriptSegment{
		{ID: 0, Start: 0, End: 4.2, Text: " Guten Tag.", Tokens: []int{50364, 42833}, AvgLogprob: -0.21},
		{ID: 1, Seek: 420, Start: 4.2, End: 9.9, Text: " Wie geht es dir?", NoSpeechProb: 0.01},
	}
	data, err := jobs.EncodeTranscript(segments)
	if err != nil {
		t.Fatalf("EncodeTranscript failed: %v", err)
	}
	decoded, err := jobs.DecodeTranscript(data)
	if err != nil {
		t.Fatalf("DecodeTranscript failed: %v", err)
	}
	if len(decoded) != 2 || decoded[1].Text != " Wie geht es dir?" || decoded[0].Tokens[1] != 42833 {
		t.Fatalf("unexpected decoded segments: %#v", decoded)
	}
}

func TestValidatePayloadRejectsWrongShape(t *testing.T) {
	if err := jobs.ValidatePayload(jobs.ArtifactRawTranscript, []byte(`{"oops": true}`)); err == nil {
		t.Fatal("expected error for object where array expected")
	}
	if err := jobs.ValidatePayload(jobs.ArtifactLanguageDetection, []byte(`[1,2]`)); err == nil {
		t.Fatal("expected error for array where object expected")
	}
}

func TestParseKindNormalizes(t *testing.T) {
	kind, ok := jobs.ParseKind("  Translate ")
	if !ok || kind != jobs.KindTranslate {
		t.Fatalf("ParseKind returned %q, %v", kind, ok)
	}
	if _, ok := jobs.ParseKind("summarize"); ok {
		t.Fatal("expected unknown kind to be rejected")
	}
}
