package splits

import (
	"fmt"
	"slices"
	"strings"

	"echoprep/internal/batch"
	"echoprep/internal/dataset"
)

// Order is the concatenation order of the assigned table.
var Order = []dataset.Split{dataset.SplitVal, dataset.SplitTrain, dataset.SplitTest}

// DirName returns the dataset directory a split's frames live under.
func DirName(split dataset.Split) string {
	switch split {
	case dataset.SplitVal:
		return "valid"
	case dataset.SplitTrain:
		return "train"
	case dataset.SplitTest:
		return "test"
	default:
		return strings.ToLower(string(split))
	}
}

// FramePath rewrites a metadata FileName to its split-relative frame path.
func FramePath(split dataset.Split, name string) string {
	return "/" + DirName(split) + "/frames/" + name
}

// SplitCount summarizes one split.
type SplitCount struct {
	Split   dataset.Split `json:"split"`
	Dir     string        `json:"dir,omitempty"`
	Listed  int           `json:"listed"`
	Matched int           `json:"matched"`
	Orphans int           `json:"orphans"`
}

// Summary reports how the metadata rows were distributed.
type Summary struct {
	MetadataRows int          `json:"metadata_rows"`
	Matched      int          `json:"matched"`
	RowsWritten  int          `json:"rows_written"`
	Unmatched    int          `json:"unmatched"`
	Overlapping  int          `json:"overlapping"`
	Orphans      int          `json:"orphans"`
	Duplicates   int          `json:"duplicates"`
	Splits       []SplitCount `json:"splits"`
}

// Result is the outcome of an assignment.
type Result struct {
	Table   *dataset.Table `json:"-"`
	Summary Summary        `json:"summary"`
	Report  batch.Report   `json:"report"`
}

// Assign partitions meta by split membership. The returned table holds the
// VAL, TRAIN and TEST subsets concatenated in that order, with FileName
// rewritten to the frame path and Split set to the label. Rows listed in no
// split are dropped and rows listed in several splits are emitted once per
// split; both are reported. When strict is set, either case fails with
// batch.ErrValidation and no table is returned.
func Assign(meta *dataset.Table, listings []*Listing, strict bool) (*Result, error) {
	cols, err := meta.RequireColumns(dataset.ColumnFileName)
	if err != nil {
		return nil, err
	}
	nameIdx := cols[dataset.ColumnFileName]

	bySplit := make(map[dataset.Split]*Listing, len(listings))
	for _, listing := range listings {
		if listing != nil {
			bySplit[listing.Split] = listing
		}
	}

	result := &Result{Summary: Summary{MetadataRows: len(meta.Rows)}}
	report := &result.Report

	// membership[i] lists the splits row i belongs to, in Order.
	membership := make([][]dataset.Split, len(meta.Rows))
	known := make(map[string]int, len(meta.Rows))
	for i, row := range meta.Rows {
		name := row.Fields[nameIdx]
		key := dataset.NormalizeName(name)
		if firstLine, ok := known[key]; ok {
			report.Addf(batch.KindDuplicate, name, row.Line, "repeats line %d; both rows are assigned", firstLine)
			result.Summary.Duplicates++
		} else {
			known[key] = row.Line
		}

		for _, split := range Order {
			if bySplit[split].Contains(name) {
				membership[i] = append(membership[i], split)
			}
		}
		switch n := len(membership[i]); {
		case n == 0:
			report.Addf(batch.KindUnmatched, name, row.Line, "not listed in any split directory")
			result.Summary.Unmatched++
		case n > 1:
			labels := make([]string, 0, n)
			for _, split := range membership[i] {
				labels = append(labels, string(split))
			}
			report.Addf(batch.KindOverlap, name, row.Line, "listed in %s; emitted once per split", strings.Join(labels, ", "))
			result.Summary.Overlapping++
			result.Summary.Matched++
		default:
			result.Summary.Matched++
		}
	}

	for _, split := range Order {
		listing := bySplit[split]
		count := SplitCount{Split: split, Listed: listing.Len()}
		if listing != nil {
			count.Dir = listing.Dir
			seen := make(map[string]struct{}, len(listing.Names))
			for _, name := range listing.Names {
				if _, dup := seen[name]; dup {
					continue
				}
				seen[name] = struct{}{}
				if _, ok := known[name]; !ok {
					report.Addf(batch.KindOrphan, name, 0, "present in %s directory but absent from metadata", DirName(split))
					count.Orphans++
				}
			}
		}
		result.Summary.Orphans += count.Orphans
		result.Summary.Splits = append(result.Summary.Splits, count)
	}

	if strict && (result.Summary.Unmatched > 0 || result.Summary.Overlapping > 0) {
		return result, batch.Wrap(batch.ErrValidation, "split", "check membership",
			fmt.Sprintf("%d unmatched and %d overlapping metadata rows", result.Summary.Unmatched, result.Summary.Overlapping), nil)
	}

	header := slices.Clone(meta.Header)
	splitIdx := meta.ColumnIndex(dataset.ColumnSplit)
	if splitIdx < 0 {
		splitIdx = len(header)
		header = append(header, dataset.ColumnSplit)
	}

	out := &dataset.Table{Path: meta.Path, Header: header}
	for s, split := range Order {
		for i, row := range meta.Rows {
			if !slices.Contains(membership[i], split) {
				continue
			}
			fields := make([]string, len(header))
			copy(fields, row.Fields)
			fields[nameIdx] = FramePath(split, row.Fields[nameIdx])
			fields[splitIdx] = string(split)
			out.Rows = append(out.Rows, dataset.Row{Line: row.Line, Fields: fields})
			result.Summary.Splits[s].Matched++
		}
	}
	result.Summary.RowsWritten = len(out.Rows)
	result.Table = out
	return result, nil
}
