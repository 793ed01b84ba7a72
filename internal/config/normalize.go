package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSplit(); err != nil {
		return err
	}
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSplit() error {
	var err error
	if c.Split.MetadataPath, err = expandPath(strings.TrimSpace(c.Split.MetadataPath)); err != nil {
		return fmt.Errorf("split.metadata_path: %w", err)
	}
	if c.Split.OutputPath, err = expandPath(strings.TrimSpace(c.Split.OutputPath)); err != nil {
		return fmt.Errorf("split.output_path: %w", err)
	}
	if c.Split.Dirs.Train, err = expandPath(strings.TrimSpace(c.Split.Dirs.Train)); err != nil {
		return fmt.Errorf("split.dirs.train: %w", err)
	}
	if c.Split.Dirs.Val, err = expandPath(strings.TrimSpace(c.Split.Dirs.Val)); err != nil {
		return fmt.Errorf("split.dirs.val: %w", err)
	}
	if c.Split.Dirs.Test, err = expandPath(strings.TrimSpace(c.Split.Dirs.Test)); err != nil {
		return fmt.Errorf("split.dirs.test: %w", err)
	}
	c.Split.ImageSuffix = strings.TrimSpace(c.Split.ImageSuffix)
	return nil
}

func (c *Config) normalizeLedger() error {
	var err error
	if c.Ledger.Path, err = expandPath(strings.TrimSpace(c.Ledger.Path)); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeMetrics() error {
	var err error
	if c.Metrics.TextfilePath, err = expandPath(strings.TrimSpace(c.Metrics.TextfilePath)); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
