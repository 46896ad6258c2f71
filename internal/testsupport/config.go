package testsupport

import (
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.API.Bind = "127.0.0.1:0"
	cfg.API.Secret = "test-secret"
	cfg.Worker.ReceiveBlock = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithTimeLimits overrides the worker time limits, in seconds.
func WithTimeLimits(soft, hard int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Worker.SoftTimeLimit = soft
		cfg.Worker.HardTimeLimit = hard
	}
}

// WithMaxAttempts overrides the delivery attempt ceiling.
func WithMaxAttempts(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Worker.MaxAttempts = n
	}
}
