package splits

import (
	"context"
	"log/slog"
	"time"

	"echoprep/internal/batch"
	"echoprep/internal/config"
	"echoprep/internal/dataset"
	"echoprep/internal/fileutil"
	"echoprep/internal/logging"
)

// Assigner runs the split assignment described by a config.Split section.
type Assigner struct {
	cfg    config.Split
	logger *slog.Logger
}

// NewAssigner constructs an assigner. A nil logger discards output.
func NewAssigner(cfg config.Split, logger *slog.Logger) *Assigner {
	return &Assigner{cfg: cfg, logger: logging.NewComponentLogger(logger, "splits")}
}

// Run reads the metadata table and the three split listings, assigns
// splits, and writes the concatenated table to the configured output path.
// The result is returned alongside a validation error in strict mode so the
// caller can still report what was found.
func (a *Assigner) Run(ctx context.Context) (*Result, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, batch.Wrap(batch.ErrConfiguration, "split", "validate config", "", err)
	}
	logger := logging.WithContext(ctx, a.logger)
	started := time.Now()

	meta, err := dataset.ReadTable(a.cfg.MetadataPath, 0)
	if err != nil {
		return nil, err
	}
	logger.Debug("metadata loaded", logging.String("metadata_path", a.cfg.MetadataPath), logging.Int("rows_read", len(meta.Rows)))

	dirs := map[dataset.Split]string{
		dataset.SplitVal:   a.cfg.Dirs.Val,
		dataset.SplitTrain: a.cfg.Dirs.Train,
		dataset.SplitTest:  a.cfg.Dirs.Test,
	}
	listings := make([]*Listing, 0, len(Order))
	for _, split := range Order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		listing, err := LoadListing(split, dirs[split], a.cfg.ImageSuffix)
		if err != nil {
			return nil, err
		}
		logger.Debug("split directory listed",
			logging.String("split", string(split)),
			logging.String("listing_dir", listing.Dir),
			logging.Int("entries", listing.Len()),
		)
		listings = append(listings, listing)
	}

	result, err := Assign(meta, listings, a.cfg.Strict)
	if result != nil {
		a.logDiagnostics(logger, result)
	}
	if err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if err := fileutil.WriteFileAtomic(a.cfg.OutputPath, result.Table.Encode); err != nil {
		return result, batch.Wrap(batch.ErrIO, "split", "write output", a.cfg.OutputPath, err)
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "split_completed"),
		logging.Int("rows_read", result.Summary.MetadataRows),
		logging.Int("rows_written", result.Summary.RowsWritten),
		logging.Int("diagnostics", result.Report.Len()),
		logging.Duration("duration", time.Since(started)),
		logging.String("output_path", a.cfg.OutputPath),
	}
	for _, count := range result.Summary.Splits {
		attrs = append(attrs, logging.Int("split_"+DirName(count.Split), count.Matched))
	}
	logger.Info("split assignment written", logging.Args(attrs...)...)
	return result, nil
}

func (a *Assigner) logDiagnostics(logger *slog.Logger, result *Result) {
	for _, d := range result.Report.Diagnostics {
		logger.Debug("split diagnostic",
			logging.String("kind", string(d.Kind)),
			logging.String("record", d.Record),
			logging.Int("record_line", d.Line),
			logging.String("reason", d.Message),
		)
	}
	if result.Summary.Unmatched > 0 {
		logging.WarnWithContext(logger, "metadata rows missing from every split", "split_unmatched",
			logging.Int("count", result.Summary.Unmatched),
			logging.String(logging.FieldImpact, "rows dropped from output"),
			logging.String(logging.FieldErrorHint, "check the split directories or enable strict mode"),
		)
	}
	if result.Summary.Overlapping > 0 {
		logging.WarnWithContext(logger, "metadata rows listed in several splits", "split_overlap",
			logging.Int("count", result.Summary.Overlapping),
			logging.String(logging.FieldImpact, "rows duplicated across splits"),
			logging.String(logging.FieldErrorHint, "remove the duplicate images so each video belongs to one split"),
		)
	}
	if result.Summary.Orphans > 0 {
		logging.WarnWithContext(logger, "split images without metadata", "split_orphans",
			logging.Int("count", result.Summary.Orphans),
			logging.String(logging.FieldImpact, "images have no training labels"),
		)
	}
}
