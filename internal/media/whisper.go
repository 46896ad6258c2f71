package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"scribe/internal/config"
	"scribe/internal/jobs"
)

const (
	taskTranscribe = "transcribe"
	taskTranslate  = "translate"
)

// whisperRunner shells out to the whisper CLI and parses the JSON file
// it writes next to the transcribed media.
type whisperRunner struct {
	binary        string
	model         string
	modelDir      string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

func newWhisperRunner(cfg config.Whisper) *whisperRunner {
	return &whisperRunner{
		binary:   cfg.Binary,
		model:    cfg.Model,
		modelDir: cfg.ModelDir,
	}
}

// run executes a command, using the custom runner if set.
func (r *whisperRunner) run(ctx context.Context, name string, args ...string) error {
	if r.commandRunner != nil {
		return r.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// transcription mirrors the whisper CLI JSON output.
type transcription struct {
	Language string                   `json:"language"`
	Segments []jobs.TranscriptSegment `json:"segments"`
}

// Transcribe runs the whisper CLI on source and parses the resulting
// JSON. task selects between transcription and translation to English;
// language is an optional hint that skips model-side detection.
func (r *whisperRunner) Transcribe(ctx context.Context, source, outputDir, task, language string) (transcription, error) {
	var out transcription
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return out, fmt.Errorf("whisper: ensure output dir: %w", err)
	}

	args := r.buildArgs(source, outputDir, task, language)
	if err := r.run(ctx, r.binary, args...); err != nil {
		return out, &ProcessingError{Message: "whisper " + task + " failed", Err: err}
	}

	// Whisper names its outputs after the source file.
	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return out, &ProcessingError{Message: "whisper produced no output", Err: err}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &ProcessingError{Message: "parse whisper output", Err: err}
	}
	return out, nil
}

// buildArgs constructs the whisper CLI arguments.
func (r *whisperRunner) buildArgs(source, outputDir, task, language string) []string {
	args := []string{
		source,
		"--model", r.model,
		"--task", task,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--verbose", "False",
	}
	if r.modelDir != "" {
		args = append(args, "--model_dir", r.modelDir)
	}
	if language != "" {
		args = append(args, "--language", language)
	}
	return args
}
