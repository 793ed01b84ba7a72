package frames

import (
	"errors"
	"iter"
	"strconv"

	"echoprep/internal/batch"
	"echoprep/internal/dataset"
)

// ErrConsumed is reported by Expansion.Err after a second iteration attempt.
var ErrConsumed = errors.New("expansion already consumed")

// Outcome is the result of expanding one metadata record. Rows holds the
// end-diastole and end-systole rows, in that order, when the record was
// expanded; otherwise Diagnostic explains why it was skipped.
type Outcome struct {
	Record     dataset.MetadataRow
	Rows       []dataset.OutputRow
	Diagnostic *batch.Diagnostic
}

// Skipped reports whether the record produced no rows.
func (o Outcome) Skipped() bool {
	return o.Diagnostic != nil
}

// ExpandRecord selects the first two distinct traced frames of record and
// computes one centroid row for each. The earlier frame is flagged ES=false
// and the later ES=true.
func ExpandRecord(record dataset.MetadataRow, points []dataset.TracingPoint) ([]dataset.OutputRow, *batch.Diagnostic) {
	skip := func(kind batch.Kind, message string) *batch.Diagnostic {
		return &batch.Diagnostic{Kind: kind, Record: record.FileName, Line: record.Line, Message: message}
	}

	if len(points) < 2 {
		return nil, skip(batch.KindSkipped, "fewer than 2 tracing rows ("+strconv.Itoa(len(points))+")")
	}
	frames := DistinctFrames(points)
	if len(frames) < 2 {
		return nil, skip(batch.KindSkipped, "only one distinct traced frame ("+strconv.Itoa(frames[0])+")")
	}

	rows := make([]dataset.OutputRow, 0, 2)
	for i, frame := range frames[:2] {
		x, y, err := Centroid(FramePoints(points, frame))
		if err != nil {
			return nil, skip(batch.KindComputation, "frame "+strconv.Itoa(frame)+": "+err.Error())
		}
		rows = append(rows, dataset.OutputRow{
			FileName: record.FileName + "_" + strconv.Itoa(frame),
			ES:       i == 1,
			X:        x,
			Y:        y,
			EF:       record.EF,
			EDV:      record.EDV,
			ESV:      record.ESV,
			Split:    record.Split,
		})
	}
	return rows, nil
}

// Expansion lazily expands metadata records against a tracing index. It can
// be iterated once.
type Expansion struct {
	records  []dataset.MetadataRow
	tracings *dataset.TracingIndex
	started  bool
	err      error
}

// NewExpansion prepares an expansion over records in order.
func NewExpansion(records []dataset.MetadataRow, tracings *dataset.TracingIndex) *Expansion {
	return &Expansion{records: records, tracings: tracings}
}

// All yields one Outcome per metadata record. Skipped records yield an
// outcome carrying a diagnostic and iteration continues with the next
// record. A second call yields nothing and sets Err to ErrConsumed.
func (e *Expansion) All() iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		if e.started {
			e.err = ErrConsumed
			return
		}
		e.started = true
		for _, record := range e.records {
			rows, diag := ExpandRecord(record, e.tracings.Lookup(record.FileName))
			if !yield(Outcome{Record: record, Rows: rows, Diagnostic: diag}) {
				return
			}
		}
	}
}

// Err reports misuse of the sequence.
func (e *Expansion) Err() error {
	return e.err
}
