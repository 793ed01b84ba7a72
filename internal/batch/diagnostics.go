package batch

import (
	"fmt"
	"slices"
)

// Kind classifies a non-fatal, per-record problem.
type Kind string

const (
	// KindSkipped marks a metadata row without two distinct traced frames.
	KindSkipped Kind = "skipped"
	// KindComputation marks a record whose centroid could not be computed.
	KindComputation Kind = "computation"
	// KindDuplicate marks a repeated FileName key in an input table.
	KindDuplicate Kind = "duplicate"
	// KindUnmatched marks a metadata row found in no split directory.
	KindUnmatched Kind = "unmatched"
	// KindOverlap marks a metadata row found in more than one split directory.
	KindOverlap Kind = "overlap"
	// KindOrphan marks a directory entry with no metadata row.
	KindOrphan Kind = "orphan"
)

var kindOrder = []Kind{
	KindSkipped,
	KindComputation,
	KindDuplicate,
	KindUnmatched,
	KindOverlap,
	KindOrphan,
}

// Diagnostic describes one record-level issue. Line is the 1-based line in the
// source file when known.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Record  string `json:"record"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s %s (line %d): %s", d.Kind, d.Record, d.Line, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Record, d.Message)
}

// Report accumulates diagnostics for a single run.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Add appends a diagnostic.
func (r *Report) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Addf appends a diagnostic built from a format string.
func (r *Report) Addf(kind Kind, record string, line int, format string, args ...any) {
	r.Add(Diagnostic{Kind: kind, Record: record, Line: line, Message: fmt.Sprintf(format, args...)})
}

// Len reports how many diagnostics were collected.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Diagnostics)
}

// Count returns the number of diagnostics of the given kind.
func (r *Report) Count(kind Kind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// KindCount pairs a diagnostic kind with its number of occurrences.
type KindCount struct {
	Kind  Kind `json:"kind"`
	Count int  `json:"count"`
}

// Counts summarizes diagnostics per kind in a stable order, omitting kinds
// with no occurrences.
func (r *Report) Counts() []KindCount {
	if r.Len() == 0 {
		return nil
	}
	totals := make(map[Kind]int)
	for _, d := range r.Diagnostics {
		totals[d.Kind]++
	}
	out := make([]KindCount, 0, len(totals))
	for _, kind := range kindOrder {
		if n := totals[kind]; n > 0 {
			out = append(out, KindCount{Kind: kind, Count: n})
			delete(totals, kind)
		}
	}
	rest := make([]Kind, 0, len(totals))
	for kind := range totals {
		rest = append(rest, kind)
	}
	slices.Sort(rest)
	for _, kind := range rest {
		out = append(out, KindCount{Kind: kind, Count: totals[kind]})
	}
	return out
}

