package config

const (
	defaultStateDir        = "~/.local/share/echoprep"
	defaultLogDir          = "~/.local/share/echoprep/logs"
	defaultMetadataPath    = "./csvs/transformed.csv"
	defaultSplitOutputPath = "./csvs/results.csv"
	defaultImageSuffix     = ".png"
	defaultMaxMetadataRows = 10030
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Split: Split{
			MetadataPath: defaultMetadataPath,
			OutputPath:   defaultSplitOutputPath,
			ImageSuffix:  defaultImageSuffix,
		},
		Expand: Expand{
			MaxMetadataRows: defaultMaxMetadataRows,
			LockOutput:      true,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
