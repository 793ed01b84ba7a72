package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"echoprep/internal/config"
	"echoprep/internal/splits"
)

type splitFlags struct {
	metadata string
	train    string
	val      string
	test     string
	output   string
	suffix   string
	strict   bool
}

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var flags splitFlags

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Label metadata rows by the split directory their frames live in",
		Long: "Reads the metadata table and the train, val and test image directories, " +
			"then writes the VAL, TRAIN and TEST subsets concatenated in that order with " +
			"FileName rewritten to the split frame path.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			splitCfg, err := applySplitFlags(cmd, cfg.Split, flags)
			if err != nil {
				return err
			}

			inputs := map[string]string{
				"metadata": splitCfg.MetadataPath,
				"train":    splitCfg.Dirs.Train,
				"val":      splitCfg.Dirs.Val,
				"test":     splitCfg.Dirs.Test,
			}
			var result *splits.Result
			runID, runErr := runBatch(cmd, ctx, "split", inputs, splitCfg.OutputPath,
				func(runCtx context.Context, logger *slog.Logger) (batchOutcome, error) {
					res, err := splits.NewAssigner(splitCfg, logger).Run(runCtx)
					result = res
					if res == nil {
						return batchOutcome{}, err
					}
					return batchOutcome{
						RecordsRead: res.Summary.MetadataRows,
						RowsWritten: res.Summary.RowsWritten,
						Report:      &res.Report,
					}, err
				})
			if result == nil {
				return runErr
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, splitPayload{RunID: runID, Output: splitCfg.OutputPath, Result: result}); err != nil {
					return err
				}
				return runErr
			}
			printSplitSummary(cmd, runID, splitCfg, result, runErr == nil)
			return runErr
		},
	}

	cmd.Flags().StringVar(&flags.metadata, "metadata", "", "Metadata CSV (overrides split.metadata_path)")
	cmd.Flags().StringVar(&flags.train, "train", "", "TRAIN image directory (overrides split.dirs.train)")
	cmd.Flags().StringVar(&flags.val, "val", "", "VAL image directory (overrides split.dirs.val)")
	cmd.Flags().StringVar(&flags.test, "test", "", "TEST image directory (overrides split.dirs.test)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output CSV (overrides split.output_path)")
	cmd.Flags().StringVar(&flags.suffix, "suffix", "", "Image file suffix stripped from directory entries (overrides split.image_suffix)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Fail when a metadata row is in no split or in several")
	return cmd
}

type splitPayload struct {
	RunID  string         `json:"run_id"`
	Output string         `json:"output_path"`
	Result *splits.Result `json:"result"`
}

// applySplitFlags overlays explicitly set flags onto the configured section.
func applySplitFlags(cmd *cobra.Command, base config.Split, flags splitFlags) (config.Split, error) {
	out := base
	paths := []struct {
		name   string
		value  string
		target *string
	}{
		{"metadata", flags.metadata, &out.MetadataPath},
		{"train", flags.train, &out.Dirs.Train},
		{"val", flags.val, &out.Dirs.Val},
		{"test", flags.test, &out.Dirs.Test},
		{"output", flags.output, &out.OutputPath},
	}
	for _, p := range paths {
		if !cmd.Flags().Changed(p.name) {
			continue
		}
		expanded, err := config.ExpandPath(p.value)
		if err != nil {
			return out, fmt.Errorf("--%s: %w", p.name, err)
		}
		*p.target = expanded
	}
	if cmd.Flags().Changed("suffix") {
		out.ImageSuffix = flags.suffix
	}
	if cmd.Flags().Changed("strict") {
		out.Strict = flags.strict
	}
	return out, nil
}

func printSplitSummary(cmd *cobra.Command, runID string, cfg config.Split, result *splits.Result, written bool) {
	out := cmd.OutOrStdout()
	summary := result.Summary

	rows := make([][]string, 0, len(summary.Splits))
	for _, sc := range summary.Splits {
		rows = append(rows, []string{
			string(sc.Split),
			sc.Dir,
			strconv.Itoa(sc.Listed),
			strconv.Itoa(sc.Matched),
			strconv.Itoa(sc.Orphans),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Split", "Directory", "Listed", "Matched", "Orphans"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))

	fmt.Fprintf(out, "Run: %s\n", runID)
	fmt.Fprintf(out, "Metadata rows: %d\n", summary.MetadataRows)
	fmt.Fprintf(out, "Unmatched: %d  Overlapping: %d  Duplicates: %d\n",
		summary.Unmatched, summary.Overlapping, summary.Duplicates)
	if written {
		fmt.Fprintf(out, "Wrote %d rows to %s\n", summary.RowsWritten, cfg.OutputPath)
	} else {
		fmt.Fprintln(out, "No output written")
	}
	printDiagnostics(out, result.Report.Diagnostics, diagnosticDisplayLimit)
}
