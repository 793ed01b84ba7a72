package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"echoprep/internal/batch"
	"echoprep/internal/config"
	"echoprep/internal/ledger"
	"echoprep/internal/logging"
	"echoprep/internal/metrics"
)

// batchOutcome is what a split or expand run reports back for bookkeeping.
type batchOutcome struct {
	RecordsRead int
	RowsWritten int
	Report      *batch.Report
}

type batchFunc func(ctx context.Context, logger *slog.Logger) (batchOutcome, error)

// runBatch attaches a run id to the context, records the run in the ledger
// and exports metrics around fn. Ledger and metrics failures are logged and
// never change the outcome of fn.
func runBatch(cmd *cobra.Command, cc *commandContext, command string, inputs map[string]string, output string, fn batchFunc) (string, error) {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return "", err
	}
	logger, err := cc.ensureLogger(cmd)
	if err != nil {
		return "", err
	}

	runID := uuid.NewString()
	ctx := batch.WithRunID(cmd.Context(), runID)
	ctx = batch.WithCommand(ctx, command)
	runLogger := logging.WithContext(ctx, logger)

	run := &ledger.Run{ID: runID, Command: command, Inputs: inputs, OutputPath: output}
	store := openLedger(ctx, cfg, runLogger, run)
	if store != nil {
		defer store.Close()
	}

	started := time.Now()
	outcome, runErr := fn(ctx, logger)
	status := runStatus(runErr)
	if status == ledger.StatusFailed {
		logging.ErrorWithContext(runLogger, command+" run failed", "run_failed",
			logging.Error(runErr),
			logging.Duration("elapsed", time.Since(started)),
		)
	}

	if store != nil {
		done := ledger.Completion{
			Status:      status,
			RecordsRead: outcome.RecordsRead,
			RowsWritten: outcome.RowsWritten,
			Err:         runErr,
		}
		// The command context may already be cancelled.
		if err := store.Finish(context.WithoutCancel(ctx), run, done, outcome.Report); err != nil {
			logging.WarnWithContext(runLogger, "run ledger update failed", "ledger_finish_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run history is incomplete"),
			)
		}
	}

	if path := cfg.Metrics.TextfilePath; path != "" {
		rec := metrics.NewRecorder()
		rec.Observe(metrics.Run{
			Command:     command,
			Status:      string(status),
			RecordsRead: outcome.RecordsRead,
			RowsWritten: outcome.RowsWritten,
			Diagnostics: outcome.Report.Counts(),
			Duration:    time.Since(started),
		})
		if err := rec.WriteTextfile(path); err != nil {
			logging.WarnWithContext(runLogger, "metrics export failed", "metrics_write_failed",
				logging.Error(err),
				logging.String("metrics_path", path),
			)
		}
	}
	return runID, runErr
}

func openLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger, run *ledger.Run) *ledger.Store {
	if !cfg.Ledger.Enabled {
		return nil
	}
	store, err := ledger.OpenFromConfig(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "run ledger unavailable", "ledger_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not recorded"),
			logging.String(logging.FieldErrorHint, "check ledger.path or disable the ledger"),
		)
		return nil
	}
	if err := store.Begin(ctx, run); err != nil {
		logging.WarnWithContext(logger, "run ledger insert failed", "ledger_begin_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not recorded"),
		)
		_ = store.Close()
		return nil
	}
	return store
}

func runStatus(err error) ledger.Status {
	switch {
	case err == nil:
		return ledger.StatusSucceeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ledger.StatusCancelled
	default:
		return ledger.StatusFailed
	}
}
