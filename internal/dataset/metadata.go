package dataset

import (
	"echoprep/internal/batch"
)

var metadataColumns = []string{ColumnFileName, ColumnEF, ColumnESV, ColumnEDV, ColumnSplit}

// ReadMetadata loads the per-video filelist used by the frame expander. At
// most limit data rows are read when limit is positive.
//
// A repeated FileName replaces the earlier row's values but keeps its
// position, and is reported as a duplicate diagnostic.
func ReadMetadata(path string, limit int, report *batch.Report) ([]MetadataRow, error) {
	table, err := ReadTable(path, limit)
	if err != nil {
		return nil, err
	}
	return ParseMetadata(table, report)
}

// ParseMetadata converts a generic table into metadata rows.
func ParseMetadata(table *Table, report *batch.Report) ([]MetadataRow, error) {
	cols, err := table.RequireColumns(metadataColumns...)
	if err != nil {
		return nil, err
	}

	rows := make([]MetadataRow, 0, len(table.Rows))
	seen := make(map[string]int, len(table.Rows))
	for _, raw := range table.Rows {
		row := MetadataRow{
			FileName: raw.Fields[cols[ColumnFileName]],
			Split:    Split(raw.Fields[cols[ColumnSplit]]),
			Line:     raw.Line,
		}
		if row.EF, err = parseCell(table.Path, raw, ColumnEF, cols); err != nil {
			return nil, err
		}
		if row.ESV, err = parseCell(table.Path, raw, ColumnESV, cols); err != nil {
			return nil, err
		}
		if row.EDV, err = parseCell(table.Path, raw, ColumnEDV, cols); err != nil {
			return nil, err
		}

		key := NormalizeName(row.FileName)
		if idx, ok := seen[key]; ok {
			if report != nil {
				report.Addf(batch.KindDuplicate, row.FileName, row.Line,
					"repeats line %d; later values replace earlier ones", rows[idx].Line)
			}
			row.Line = rows[idx].Line
			rows[idx] = row
			continue
		}
		seen[key] = len(rows)
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCell(path string, row Row, column string, cols map[string]int) (float64, error) {
	value := row.Fields[cols[column]]
	v, err := ParseFloat(value)
	if err != nil {
		return 0, &batch.FormatError{Path: path, Line: row.Line, Column: column, Value: value, Err: unwrapNumError(err)}
	}
	return v, nil
}
