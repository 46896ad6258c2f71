package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"scribe/internal/config"
)

// writeTestConfig materializes a config file under a temp HOME so CLI
// runs never touch the real user environment.
func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", base)

	cfg := map[string]any{
		"paths": map[string]any{
			"data_dir": filepath.Join(base, "data"),
			"log_dir":  filepath.Join(base, "logs"),
			"work_dir": filepath.Join(base, "work"),
		},
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	writeTestConfig(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// Without --overwrite a second init refuses to clobber the file.
	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error for existing config file")
	}
}

func TestConfigValidateUsesDefaults(t *testing.T) {
	writeTestConfig(t)

	out, err := runCLI(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigShowRedactsSecret(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("SCRIBE_API_SECRET", "super-secret")

	out, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "super-secret") {
		t.Fatal("secret leaked into config show output")
	}
	requireContains(t, out, "<redacted>")
	requireContains(t, out, "enqueue_policy")
}

func TestJobsListEmptyStore(t *testing.T) {
	path := writeTestConfig(t)

	out, err := runCLI(t, "--config", path, "jobs", "list")
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "No jobs")
}

func TestJobsListRejectsUnknownStatus(t *testing.T) {
	path := writeTestConfig(t)

	_, err := runCLI(t, "--config", path, "jobs", "list", "--status", "stuck")
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	if !strings.Contains(err.Error(), "processing") {
		t.Fatalf("expected the error to name the valid statuses, got %v", err)
	}
}

func TestJobsShowUnknownJobFails(t *testing.T) {
	path := writeTestConfig(t)

	if _, err := runCLI(t, "--config", path, "jobs", "show", "missing-id"); err == nil {
		t.Fatal("expected error for unknown job id")
	}
}

func TestSubmitRejectsUnknownKind(t *testing.T) {
	path := writeTestConfig(t)

	if _, err := runCLI(t, "--config", path, "jobs", "submit", "https://example.com/a.mp3", "--kind", "summarize"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Broker.Queue != config.Default().Broker.Queue {
		t.Fatalf("sample queue %q diverges from default %q", cfg.Broker.Queue, config.Default().Broker.Queue)
	}
}
