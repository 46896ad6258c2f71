package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeBroker()
	c.normalizeWorker()
	c.normalizeWhisper()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	if c.API.Secret == "" {
		if value, ok := os.LookupEnv("SCRIBE_API_SECRET"); ok {
			c.API.Secret = value
		}
	}
}

func (c *Config) normalizeBroker() {
	c.Broker.Addr = strings.TrimSpace(c.Broker.Addr)
	if c.Broker.Addr == "" {
		c.Broker.Addr = defaultBrokerAddr
	}
	c.Broker.Queue = strings.TrimSpace(c.Broker.Queue)
	if c.Broker.Queue == "" {
		c.Broker.Queue = defaultBrokerQueue
	}
	c.Broker.EnqueuePolicy = strings.ToLower(strings.TrimSpace(c.Broker.EnqueuePolicy))
	if c.Broker.EnqueuePolicy == "" {
		c.Broker.EnqueuePolicy = defaultEnqueuePolicy
	}
}

func (c *Config) normalizeWorker() {
	if c.Worker.SoftTimeLimit <= 0 {
		c.Worker.SoftTimeLimit = defaultSoftTimeLimit
	}
	if c.Worker.HardTimeLimit <= 0 {
		c.Worker.HardTimeLimit = defaultHardTimeLimit
	}
	if c.Worker.MaxAttempts <= 0 {
		c.Worker.MaxAttempts = defaultMaxAttempts
	}
	if c.Worker.ReceiveBlock <= 0 {
		c.Worker.ReceiveBlock = defaultReceiveBlock
	}
}

func (c *Config) normalizeWhisper() {
	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	c.Whisper.Binary = strings.TrimSpace(c.Whisper.Binary)
	if c.Whisper.Binary == "" {
		c.Whisper.Binary = defaultWhisperBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFmt
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
