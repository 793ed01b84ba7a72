package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"

	"echoprep/internal/batch"
)

// OutputWriter streams expanded frame rows as CSV.
type OutputWriter struct {
	csv  *csv.Writer
	rows int
}

// NewOutputWriter writes the output header to w.
func NewOutputWriter(w io.Writer) (*OutputWriter, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(OutputHeader); err != nil {
		return nil, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return &OutputWriter{csv: writer}, nil
}

// WriteRecord writes the rows produced for one metadata record and flushes
// them so a partially completed run leaves every finished record on disk.
func (w *OutputWriter) WriteRecord(rows ...OutputRow) error {
	for _, row := range rows {
		if err := w.csv.Write(row.Record()); err != nil {
			return err
		}
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	w.rows += len(rows)
	return nil
}

// Rows reports how many data rows have been written.
func (w *OutputWriter) Rows() int {
	return w.rows
}

// ReadOutput loads an expanded frame table.
func ReadOutput(path string) ([]OutputRow, error) {
	table, err := ReadTable(path, 0)
	if err != nil {
		return nil, err
	}
	return ParseOutput(table)
}

// ParseOutput converts a generic table into expanded frame rows.
func ParseOutput(table *Table) ([]OutputRow, error) {
	cols, err := table.RequireColumns(OutputHeader...)
	if err != nil {
		return nil, err
	}
	rows := make([]OutputRow, 0, len(table.Rows))
	for _, raw := range table.Rows {
		row := OutputRow{
			FileName: raw.Fields[cols[ColumnFileName]],
			Split:    Split(raw.Fields[cols[ColumnSplit]]),
		}
		esValue := raw.Fields[cols[ColumnES]]
		if row.ES, err = ParseBool(esValue); err != nil {
			return nil, &batch.FormatError{Path: table.Path, Line: raw.Line, Column: ColumnES, Value: esValue, Err: err}
		}
		for _, target := range []struct {
			column string
			dst    *float64
		}{
			{ColumnX, &row.X},
			{ColumnY, &row.Y},
			{ColumnEF, &row.EF},
			{ColumnEDV, &row.EDV},
			{ColumnESV, &row.ESV},
		} {
			if *target.dst, err = parseCell(table.Path, raw, target.column, cols); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseBool accepts True/False as written by FormatBool as well as the
// spellings strconv understands.
func ParseBool(value string) (bool, error) {
	switch value {
	case "True":
		return true, nil
	case "False":
		return false, nil
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.New("not a boolean")
	}
	return v, nil
}
