package main

import (
	"strings"
	"sync"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/jobs"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the job store for a one-shot command.
func (c *commandContext) withStore(fn func(*config.Config, *jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// withQueue opens the dispatch queue alongside the store for commands
// that also need to push or inspect messages.
func (c *commandContext) withQueue(fn func(*config.Config, *jobs.Store, *dispatch.Queue) error) error {
	return c.withStore(func(cfg *config.Config, store *jobs.Store) error {
		queue := dispatch.New(cfg)
		defer queue.Close()
		return fn(cfg, store, queue)
	})
}
