package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"echoprep/internal/batch"
)

const utf8BOM = "\ufeff"

// Row is one data record with the 1-based line it started on.
type Row struct {
	Line   int
	Fields []string
}

// Table is an in-memory CSV table that preserves column order.
type Table struct {
	Path   string
	Header []string
	Rows   []Row
}

// ReadTable loads the CSV file at path. When limit is positive, at most limit
// data rows are read.
func ReadTable(path string, limit int) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, batch.Wrap(batch.ErrIO, "", "open table", path, err)
	}
	defer file.Close()

	table, err := DecodeTable(file, path, limit)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// DecodeTable reads a CSV table from r. name is used in error messages.
func DecodeTable(r io.Reader, name string, limit int) (*Table, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &batch.FormatError{Path: name, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, csvError(name, err)
	}
	header = append([]string(nil), header...)
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	table := &Table{Path: name, Header: header}
	for limit <= 0 || len(table.Rows) < limit {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(name, err)
		}
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, Row{Line: line, Fields: record})
	}
	return table, nil
}

func csvError(name string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &batch.FormatError{Path: name, Line: parseErr.StartLine, Err: parseErr.Err}
	}
	return batch.Wrap(batch.ErrIO, "", "read table", name, err)
}

// ColumnIndex returns the position of column, or -1 when absent.
func (t *Table) ColumnIndex(column string) int {
	for i, name := range t.Header {
		if name == column {
			return i
		}
	}
	return -1
}

// RequireColumns resolves the positions of the named columns, failing with a
// data format error naming the first missing column.
func (t *Table) RequireColumns(columns ...string) (map[string]int, error) {
	positions := make(map[string]int, len(columns))
	for _, column := range columns {
		idx := t.ColumnIndex(column)
		if idx < 0 {
			return nil, &batch.FormatError{
				Path:   t.Path,
				Line:   1,
				Column: column,
				Err:    fmt.Errorf("missing required column (have %s)", strings.Join(t.Header, ",")),
			}
		}
		positions[column] = idx
	}
	return positions, nil
}

// Encode writes the table, header first, as CSV.
func (t *Table) Encode(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row.Fields); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
