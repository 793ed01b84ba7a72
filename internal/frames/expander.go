package frames

import (
	"context"
	"log/slog"
	"os"
	"time"

	"echoprep/internal/batch"
	"echoprep/internal/config"
	"echoprep/internal/dataset"
	"echoprep/internal/fileutil"
	"echoprep/internal/logging"
)

// Inputs names the files of one expansion run.
type Inputs struct {
	FileList string
	Tracings string
	Output   string
}

// Summary reports what an expansion run did.
type Summary struct {
	RecordsRead     int               `json:"records_read"`
	RecordsExpanded int               `json:"records_expanded"`
	RecordsSkipped  int               `json:"records_skipped"`
	TracingPoints   int               `json:"tracing_points"`
	RowsWritten     int               `json:"rows_written"`
	Diagnostics     []batch.KindCount `json:"diagnostics,omitempty"`
	Duration        time.Duration     `json:"duration_ns"`
}

// Result bundles the summary with every diagnostic collected.
type Result struct {
	Summary Summary      `json:"summary"`
	Report  batch.Report `json:"report"`
}

// Expander runs the frame expansion described by a config.Expand section.
type Expander struct {
	cfg    config.Expand
	logger *slog.Logger
}

// NewExpander constructs an expander. A nil logger discards output.
func NewExpander(cfg config.Expand, logger *slog.Logger) *Expander {
	return &Expander{cfg: cfg, logger: logging.NewComponentLogger(logger, "frames")}
}

// Run expands every metadata record of inputs.FileList and writes two rows
// per expanded record to inputs.Output, flushing after each record. Records
// that cannot be expanded are reported and skipped. On cancellation the rows
// written so far are kept and the partial result is returned with ctx.Err().
func (x *Expander) Run(ctx context.Context, inputs Inputs) (*Result, error) {
	logger := logging.WithContext(ctx, x.logger)
	started := time.Now()
	result := &Result{}

	records, err := dataset.ReadMetadata(inputs.FileList, x.cfg.MaxMetadataRows, &result.Report)
	if err != nil {
		return nil, err
	}
	result.Summary.RecordsRead = len(records)

	tracings, err := dataset.ReadTracings(inputs.Tracings)
	if err != nil {
		return nil, err
	}
	result.Summary.TracingPoints = tracings.Len()
	logger.Debug("inputs loaded",
		logging.Int("rows_read", len(records)),
		logging.Int("tracing_points", tracings.Len()),
		logging.Int("tracing_videos", tracings.Videos()),
	)

	if x.cfg.LockOutput {
		lock, err := fileutil.LockOutput(inputs.Output)
		if err != nil {
			return nil, batch.Wrap(batch.ErrIO, "expand", "lock output", inputs.Output, err)
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Debug("release output lock failed", logging.String("lock_path", lock.Path()), logging.Error(err))
			}
		}()
	}

	if err := fileutil.EnsureParentDir(inputs.Output); err != nil {
		return nil, batch.Wrap(batch.ErrIO, "expand", "create output directory", inputs.Output, err)
	}
	file, err := os.Create(inputs.Output)
	if err != nil {
		return nil, batch.Wrap(batch.ErrIO, "expand", "create output", inputs.Output, err)
	}
	defer file.Close()

	writer, err := dataset.NewOutputWriter(file)
	if err != nil {
		return nil, batch.Wrap(batch.ErrIO, "expand", "write header", inputs.Output, err)
	}

	expansion := NewExpansion(records, tracings)
	for outcome := range expansion.All() {
		if err := ctx.Err(); err != nil {
			x.finish(result, writer, started)
			return result, err
		}
		if outcome.Skipped() {
			result.Report.Add(*outcome.Diagnostic)
			result.Summary.RecordsSkipped++
			logger.Debug("record skipped",
				logging.String("record", outcome.Record.FileName),
				logging.Int("record_line", outcome.Record.Line),
				logging.String("kind", string(outcome.Diagnostic.Kind)),
				logging.String("reason", outcome.Diagnostic.Message),
			)
			continue
		}
		if err := writer.WriteRecord(outcome.Rows...); err != nil {
			x.finish(result, writer, started)
			return result, batch.Wrap(batch.ErrIO, "expand", "write record", outcome.Record.FileName, err)
		}
		result.Summary.RecordsExpanded++
	}
	if err := expansion.Err(); err != nil {
		return result, err
	}
	if err := file.Close(); err != nil {
		return result, batch.Wrap(batch.ErrIO, "expand", "close output", inputs.Output, err)
	}
	x.finish(result, writer, started)

	if skipped := result.Summary.RecordsSkipped; skipped > 0 {
		logging.WarnWithContext(logger, "records skipped during expansion", "expand_skipped",
			logging.Int("records_skipped", skipped),
			logging.String(logging.FieldImpact, "skipped videos have no frame rows"),
			logging.String(logging.FieldErrorHint, "run with --log-level debug or see `echoprep runs show` for each record"),
		)
	}
	logger.Info("frame expansion written",
		logging.String(logging.FieldEventType, "expand_completed"),
		logging.Int("records_processed", result.Summary.RecordsRead),
		logging.Int("rows_written", result.Summary.RowsWritten),
		logging.Int("diagnostics", result.Report.Len()),
		logging.Duration("duration", result.Summary.Duration),
		logging.String("output_path", inputs.Output),
	)
	return result, nil
}

func (x *Expander) finish(result *Result, writer *dataset.OutputWriter, started time.Time) {
	result.Summary.RowsWritten = writer.Rows()
	result.Summary.Diagnostics = result.Report.Counts()
	result.Summary.Duration = time.Since(started)
}
