package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"echoprep/internal/config"
	"echoprep/internal/frames"
)

const expandUsage = "usage: echoprep expand <filelist.csv> <volumeTracings.csv> <outFile.csv>"

func newExpandCommand(ctx *commandContext) *cobra.Command {
	var maxRows int
	var noLock bool

	cmd := &cobra.Command{
		Use:   "expand <filelist.csv> <volumeTracings.csv> <outFile.csv>",
		Short: "Write end-diastolic and end-systolic centroid rows for each traced video",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 {
				return fmt.Errorf("expand needs 3 file arguments, got %d\n%s", len(args), expandUsage)
			}
			if len(args) > 3 {
				return fmt.Errorf("expand takes 3 file arguments, got %d\n%s", len(args), expandUsage)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			inputs, err := expandInputs(args)
			if err != nil {
				return err
			}
			expandCfg := cfg.Expand
			if cmd.Flags().Changed("max-rows") {
				if maxRows < 0 {
					return fmt.Errorf("--max-rows must be >= 0, got %d", maxRows)
				}
				expandCfg.MaxMetadataRows = maxRows
			}
			if noLock {
				expandCfg.LockOutput = false
			}

			ledgerInputs := map[string]string{
				"filelist": inputs.FileList,
				"tracings": inputs.Tracings,
			}
			var result *frames.Result
			runID, runErr := runBatch(cmd, ctx, "expand", ledgerInputs, inputs.Output,
				func(runCtx context.Context, logger *slog.Logger) (batchOutcome, error) {
					res, err := frames.NewExpander(expandCfg, logger).Run(runCtx, inputs)
					result = res
					if res == nil {
						return batchOutcome{}, err
					}
					return batchOutcome{
						RecordsRead: res.Summary.RecordsRead,
						RowsWritten: res.Summary.RowsWritten,
						Report:      &res.Report,
					}, err
				})
			if result == nil {
				return runErr
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, expandPayload{RunID: runID, Output: inputs.Output, Result: result}); err != nil {
					return err
				}
				return runErr
			}
			printExpandSummary(cmd, runID, inputs, result)
			return runErr
		},
	}

	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "Cap on filelist rows read, 0 for no cap (overrides expand.max_metadata_rows)")
	cmd.Flags().BoolVar(&noLock, "no-lock", false, "Skip the advisory lock on the output file")
	return cmd
}

type expandPayload struct {
	RunID  string         `json:"run_id"`
	Output string         `json:"output_path"`
	Result *frames.Result `json:"result"`
}

func expandInputs(args []string) (frames.Inputs, error) {
	paths := make([]string, len(args))
	for i, arg := range args {
		expanded, err := config.ExpandPath(arg)
		if err != nil {
			return frames.Inputs{}, fmt.Errorf("resolve %q: %w", arg, err)
		}
		paths[i] = expanded
	}
	return frames.Inputs{FileList: paths[0], Tracings: paths[1], Output: paths[2]}, nil
}

func printExpandSummary(cmd *cobra.Command, runID string, inputs frames.Inputs, result *frames.Result) {
	out := cmd.OutOrStdout()
	s := result.Summary
	fmt.Fprintf(out, "Run: %s\n", runID)
	fmt.Fprintf(out, "Records read: %d\n", s.RecordsRead)
	fmt.Fprintf(out, "Records expanded: %d\n", s.RecordsExpanded)
	fmt.Fprintf(out, "Records skipped: %d\n", s.RecordsSkipped)
	fmt.Fprintf(out, "Wrote %d rows to %s\n", s.RowsWritten, inputs.Output)
	printDiagnostics(out, result.Report.Diagnostics, diagnosticDisplayLimit)
}
