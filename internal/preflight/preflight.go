package preflight

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"echoprep/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// ExpandInputs names the files of a frame expansion run.
type ExpandInputs struct {
	FileList string
	Tracings string
	Output   string
}

// RunAll executes the checks that apply to the given config: state
// directories, the ledger and metrics locations, and every configured split
// path. Unconfigured split paths are skipped.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, checkStateDirectory("State directory", cfg.Paths.StateDir))
	if cfg.Logging.ToFile {
		results = append(results, checkStateDirectory("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Ledger.Enabled {
		results = append(results, CheckOutputWritable("Run ledger", cfg.LedgerPath()))
	}
	if cfg.Metrics.TextfilePath != "" {
		results = append(results, CheckOutputWritable("Metrics textfile", cfg.Metrics.TextfilePath))
	}
	if splitConfigured(cfg.Split) {
		results = append(results, RunSplit(cfg.Split)...)
	}
	return results
}

// RunSplit checks the metadata table, the three split directories, and the
// output location of the split assigner.
func RunSplit(split config.Split) []Result {
	return []Result{
		CheckFileReadable("Split metadata", split.MetadataPath),
		CheckDirectoryReadable("VAL directory", split.Dirs.Val),
		CheckDirectoryReadable("TRAIN directory", split.Dirs.Train),
		CheckDirectoryReadable("TEST directory", split.Dirs.Test),
		CheckOutputWritable("Split output", split.OutputPath),
	}
}

// RunExpand checks the two expander inputs and its output location.
func RunExpand(inputs ExpandInputs) []Result {
	return []Result{
		CheckFileReadable("File list", inputs.FileList),
		CheckFileReadable("Volume tracings", inputs.Tracings),
		CheckOutputWritable("Expansion output", inputs.Output),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// checkStateDirectory requires read/write access once dir exists. Before the
// first run creates it, a writable ancestor is enough.
func checkStateDirectory(name, dir string) Result {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return CheckOutputWritable(name, filepath.Join(dir, ".probe"))
	}
	return CheckDirectoryAccess(name, dir)
}

func splitConfigured(split config.Split) bool {
	return split.Dirs.Train != "" || split.Dirs.Val != "" || split.Dirs.Test != ""
}
