package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable by every command.
func (c *Config) Validate() error {
	if err := c.validateExpand(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateSplit ensures the split assigner has every path it needs. It is
// checked separately because expand runs never touch the split section.
func (c *Config) ValidateSplit() error {
	return c.Split.Validate()
}

// Validate checks that every split path is set, that the three directories
// are distinct, and that the output does not overwrite the metadata table.
func (s Split) Validate() error {
	if err := ensureSetMap(map[string]string{
		"split.metadata_path": s.MetadataPath,
		"split.output_path":   s.OutputPath,
		"split.dirs.train":    s.Dirs.Train,
		"split.dirs.val":      s.Dirs.Val,
		"split.dirs.test":     s.Dirs.Test,
	}); err != nil {
		return err
	}
	seen := make(map[string]string, 3)
	for _, entry := range []struct{ key, dir string }{
		{"val", s.Dirs.Val},
		{"train", s.Dirs.Train},
		{"test", s.Dirs.Test},
	} {
		if other, ok := seen[entry.dir]; ok {
			return fmt.Errorf("split.dirs.%s and split.dirs.%s point at the same directory %q", other, entry.key, entry.dir)
		}
		seen[entry.dir] = entry.key
	}
	if s.OutputPath == s.MetadataPath {
		return errors.New("split.output_path must differ from split.metadata_path")
	}
	return nil
}

func (c *Config) validateExpand() error {
	if c.Expand.MaxMetadataRows < 0 {
		return errors.New("expand.max_metadata_rows must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensureSetMap(values map[string]string) error {
	var missing []string
	for key, value := range values {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if len(missing) == 1 {
		return fmt.Errorf("%s must be set", missing[0])
	}
	slices.Sort(missing)
	return fmt.Errorf("%s must be set", strings.Join(missing, ", "))
}
