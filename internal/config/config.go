package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state and log directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir" env:"ECHOPREP_STATE_DIR"`
	LogDir   string `toml:"log_dir" env:"ECHOPREP_LOG_DIR"`
}

// SplitDirs names the image directory listed for each dataset split.
type SplitDirs struct {
	Train string `toml:"train" env:"ECHOPREP_SPLIT_TRAIN_DIR"`
	Val   string `toml:"val" env:"ECHOPREP_SPLIT_VAL_DIR"`
	Test  string `toml:"test" env:"ECHOPREP_SPLIT_TEST_DIR"`
}

// Split contains configuration for the split assigner.
type Split struct {
	MetadataPath string    `toml:"metadata_path" env:"ECHOPREP_SPLIT_METADATA"`
	OutputPath   string    `toml:"output_path" env:"ECHOPREP_SPLIT_OUTPUT"`
	ImageSuffix  string    `toml:"image_suffix"`
	Strict       bool      `toml:"strict" env:"ECHOPREP_SPLIT_STRICT"`
	Dirs         SplitDirs `toml:"dirs"`
}

// Expand contains configuration for the frame expander.
type Expand struct {
	// MaxMetadataRows caps how many filelist rows are read. Zero disables the cap.
	MaxMetadataRows int  `toml:"max_metadata_rows" env:"ECHOPREP_EXPAND_MAX_ROWS"`
	LockOutput      bool `toml:"lock_output"`
}

// Ledger contains configuration for the SQLite run history.
type Ledger struct {
	Enabled bool   `toml:"enabled" env:"ECHOPREP_LEDGER_ENABLED"`
	Path    string `toml:"path" env:"ECHOPREP_LEDGER_PATH"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	TextfilePath string `toml:"textfile_path" env:"ECHOPREP_METRICS_TEXTFILE"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format  string `toml:"format" env:"ECHOPREP_LOG_FORMAT"`
	Level   string `toml:"level" env:"ECHOPREP_LOG_LEVEL"`
	ToFile  bool   `toml:"to_file"`
	NoColor bool   `toml:"no_color"`
}

// Config encapsulates all configuration values for echoprep.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Split: metadata/output paths and the three split image directories
//   - Expand: frame expander limits and output locking
//   - Ledger: SQLite run history
//   - Metrics: Prometheus textfile export
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Split   Split   `toml:"split"`
	Expand  Expand  `toml:"expand"`
	Ledger  Ledger  `toml:"ledger"`
	Metrics Metrics `toml:"metrics"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/echoprep/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, "", false, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/echoprep/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("echoprep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory when file logging is on. The
// state directory is left to the ledger, which creates it on first open.
func (c *Config) EnsureDirectories() error {
	if !c.Logging.ToFile || c.Paths.LogDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// LedgerPath returns the run ledger database location.
func (c *Config) LedgerPath() string {
	if strings.TrimSpace(c.Ledger.Path) != "" {
		return c.Ledger.Path
	}
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
