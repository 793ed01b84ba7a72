package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"echoprep/internal/batch"
	"echoprep/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight [filelist.csv volumeTracings.csv outFile.csv]",
		Short: "Check that inputs are readable and outputs writable",
		Long: "Checks the state directory, ledger, metrics textfile and configured split paths. " +
			"When the three expand arguments are given they are checked as well.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return fmt.Errorf("preflight takes no arguments or 3 expand file arguments, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg)
			if len(args) == 3 {
				inputs, err := expandInputs(args)
				if err != nil {
					return err
				}
				results = append(results, preflight.RunExpand(preflight.ExpandInputs{
					FileList: inputs.FileList,
					Tracings: inputs.Tracings,
					Output:   inputs.Output,
				})...)
			}
			failed := preflight.Failed(results)

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out, cfg.Logging.NoColor)
				for _, line := range renderSectionHeader("Preflight", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if len(failed) > 0 {
				return batch.Wrap(batch.ErrIO, "preflight", "check paths",
					fmt.Sprintf("%d of %d checks failed", len(failed), len(results)),
					errors.New(failed[0].Name+": "+failed[0].Detail))
			}
			return nil
		},
	}
}
