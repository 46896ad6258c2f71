package jobs

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/language"
)

// TranscriptSegment is a single timed passage produced by the model.
type TranscriptSegment struct {
	ID               int     `json:"id"`
	Seek             int     `json:"seek"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Tokens           []int   `json:"tokens"`
	Temperature      float64 `json:"temperature"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
}

// LanguageDetection is the payload for a detect_language artifact.
type LanguageDetection struct {
	Code string `json:"code"`
}

// EncodeTranscript serializes transcript segments for artifact storage.
func EncodeTranscript(segments []TranscriptSegment) ([]byte, error) {
	data, err := json.Marshal(segments)
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}
	return data, nil
}

// EncodeLanguageDetection serializes a language detection for artifact storage.
func EncodeLanguageDetection(detection LanguageDetection) ([]byte, error) {
	data, err := json.Marshal(detection)
	if err != nil {
		return nil, fmt.Errorf("encode language detection: %w", err)
	}
	return data, nil
}

// DecodeTranscript deserializes a transcript_raw artifact payload.
func DecodeTranscript(data []byte) ([]TranscriptSegment, error) {
	var segments []TranscriptSegment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return segments, nil
}

// DecodeLanguageDetection deserializes a language_detection artifact payload.
func DecodeLanguageDetection(data []byte) (LanguageDetection, error) {
	var detection LanguageDetection
	if err := json.Unmarshal(data, &detection); err != nil {
		return LanguageDetection{}, fmt.Errorf("decode language detection: %w", err)
	}
	return detection, nil
}

// ValidatePayload checks that an artifact payload matches its declared kind.
// Called at the store boundary so malformed payloads never reach disk.
func ValidatePayload(kind ArtifactKind, data []byte) error {
	switch kind {
	case ArtifactRawTranscript:
		_, err := DecodeTranscript(data)
		return err
	case ArtifactLanguageDetection:
		_, err := DecodeLanguageDetection(data)
		return err
	default:
		return fmt.Errorf("unknown artifact kind %q", kind)
	}
}

// ValidateConfig checks a job config before persistence. The language hint,
// when present, must be a well-formed BCP-47 tag.
func ValidateConfig(cfg *JobConfig) error {
	if cfg == nil || cfg.Language == "" {
		return nil
	}
	if _, err := language.Parse(cfg.Language); err != nil {
		return fmt.Errorf("config.language: %w", err)
	}
	return nil
}
