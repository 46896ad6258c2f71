package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBroker(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBroker() error {
	if c.Broker.Addr == "" {
		return errors.New("broker.addr must be set")
	}
	switch c.Broker.EnqueuePolicy {
	case EnqueueLeave, EnqueueFail:
	default:
		return fmt.Errorf("broker.enqueue_policy: unsupported value %q (use %q or %q)",
			c.Broker.EnqueuePolicy, EnqueueLeave, EnqueueFail)
	}
	return nil
}

func (c *Config) validateWorker() error {
	if c.Worker.HardTimeLimit <= c.Worker.SoftTimeLimit {
		return fmt.Errorf("worker.hard_time_limit (%d) must exceed worker.soft_time_limit (%d) to leave room for cleanup",
			c.Worker.HardTimeLimit, c.Worker.SoftTimeLimit)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
