package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"echoprep/internal/batch"
	"echoprep/internal/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded split and expand runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsPruneCommand(ctx))
	return runsCmd
}

func (c *commandContext) withLedger(fn func(*ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Ledger.Enabled {
		return batch.Wrap(batch.ErrConfiguration, "runs", "open ledger", "", errors.New("ledger.enabled is false"))
	}
	store, err := ledger.OpenFromConfig(cfg)
	if err != nil {
		return batch.Wrap(batch.ErrIO, "runs", "open ledger", cfg.LedgerPath(), err)
	}
	defer store.Close()
	return fn(store)
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if runs == nil {
						runs = []*ledger.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortRunID(run.ID),
						run.Command,
						string(run.Status),
						strconv.Itoa(run.RecordsRead),
						strconv.Itoa(run.RowsWritten),
						strconv.Itoa(run.DiagnosticCount),
						run.StartedAt.Local().Format(time.DateTime),
						formatRunDuration(run),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Command", "Status", "Read", "Written", "Diagnostics", "Started", "Duration"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				diags, err := store.Diagnostics(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, runDetail{Run: run, Diagnostics: diags})
				}

				cfg, _ := ctx.ensureConfig()
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out, cfg.Logging.NoColor)
				for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Command", statusInfo, run.Command, colorize))
				fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(run.Status), string(run.Status), colorize))
				fmt.Fprintln(out, renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format(time.DateTime), colorize))
				fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, formatRunDuration(run), colorize))
				for _, key := range sortedKeys(run.Inputs) {
					fmt.Fprintln(out, renderStatusLine("Input "+key, statusInfo, run.Inputs[key], colorize))
				}
				if run.OutputPath != "" {
					fmt.Fprintln(out, renderStatusLine("Output", statusInfo, run.OutputPath, colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Records read", statusInfo, strconv.Itoa(run.RecordsRead), colorize))
				fmt.Fprintln(out, renderStatusLine("Rows written", statusInfo, strconv.Itoa(run.RowsWritten), colorize))
				diagKind := statusOK
				if run.DiagnosticCount > 0 {
					diagKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Diagnostics", diagKind, strconv.Itoa(run.DiagnosticCount), colorize))
				if run.ErrorMessage != "" {
					fmt.Fprintln(out, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
				}
				limit := diagnosticDisplayLimit
				if all {
					limit = 0
				}
				printDiagnostics(out, diags, limit)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Print every diagnostic")
	return cmd
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must be >= 0, got %d", keep)
			}
			return ctx.withLedger(func(store *ledger.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs (kept %d most recent)\n", removed, keep)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 50, "Number of recent runs to keep")
	return cmd
}

type runDetail struct {
	Run         *ledger.Run        `json:"run"`
	Diagnostics []batch.Diagnostic `json:"diagnostics"`
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRunDuration(run *ledger.Run) string {
	if run.FinishedAt.IsZero() {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}

func runStatusKind(status ledger.Status) statusKind {
	switch status {
	case ledger.StatusSucceeded:
		return statusOK
	case ledger.StatusFailed:
		return statusError
	case ledger.StatusCancelled:
		return statusWarn
	default:
		return statusInfo
	}
}
