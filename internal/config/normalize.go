package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeWorker(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkerDir, err = ExpandPath(c.Paths.WorkerDir); err != nil {
		return fmt.Errorf("paths.worker_dir: %w", err)
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorker() error {
	c.Worker.Script = strings.TrimSpace(c.Worker.Script)
	if c.Worker.Script == "" {
		c.Worker.Script = defaultWorkerScript
	}
	// Absolute scripts stay as written; relative ones resolve against the
	// worker directory at launch time, so only clean them here.
	if filepath.IsAbs(c.Worker.Script) {
		expanded, err := ExpandPath(c.Worker.Script)
		if err != nil {
			return fmt.Errorf("worker.script: %w", err)
		}
		c.Worker.Script = expanded
	}

	c.Worker.Interpreter = strings.TrimSpace(c.Worker.Interpreter)
	if strings.HasPrefix(c.Worker.Interpreter, "~") {
		expanded, err := ExpandPath(c.Worker.Interpreter)
		if err != nil {
			return fmt.Errorf("worker.interpreter: %w", err)
		}
		c.Worker.Interpreter = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
