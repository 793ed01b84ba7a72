package testsupport

import (
	"path/filepath"
	"testing"

	"echoprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Split inputs point at the conventional layout under the temp root; they are
// not created until a fixture writes them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Split.MetadataPath = filepath.Join(base, "csvs", "transformed.csv")
	cfgVal.Split.OutputPath = filepath.Join(base, "csvs", "results.csv")
	cfgVal.Split.Dirs = config.SplitDirs{
		Train: filepath.Join(base, "train", "frames"),
		Val:   filepath.Join(base, "valid", "frames"),
		Test:  filepath.Join(base, "test", "frames"),
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLedgerDisabled turns off run recording.
func WithLedgerDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Enabled = false
	}
}

// WithMetricsTextfile enables the Prometheus textfile export under the temp root.
func WithMetricsTextfile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.TextfilePath = filepath.Join(b.baseDir, "metrics", name)
	}
}

// WithMaxMetadataRows overrides the expander row cap.
func WithMaxMetadataRows(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Expand.MaxMetadataRows = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
