package dataset

import (
	"echoprep/internal/batch"
)

var tracingColumns = []string{ColumnFileName, ColumnFrame, ColumnX1, ColumnY1, ColumnX2, ColumnY2}

// TracingIndex groups tracing points by video in file order.
type TracingIndex struct {
	groups map[string][]TracingPoint
	points int
}

// ReadTracings loads the long-form volume tracings table.
func ReadTracings(path string) (*TracingIndex, error) {
	table, err := ReadTable(path, 0)
	if err != nil {
		return nil, err
	}
	return ParseTracings(table)
}

// ParseTracings converts a generic table into an index of tracing points.
func ParseTracings(table *Table) (*TracingIndex, error) {
	cols, err := table.RequireColumns(tracingColumns...)
	if err != nil {
		return nil, err
	}

	index := &TracingIndex{groups: make(map[string][]TracingPoint)}
	for _, raw := range table.Rows {
		point := TracingPoint{
			FileName: raw.Fields[cols[ColumnFileName]],
			Line:     raw.Line,
		}
		frameValue := raw.Fields[cols[ColumnFrame]]
		if point.Frame, err = ParseFrame(frameValue); err != nil {
			return nil, &batch.FormatError{
				Path:   table.Path,
				Line:   raw.Line,
				Column: ColumnFrame,
				Value:  frameValue,
				Err:    unwrapNumError(err),
			}
		}
		for _, target := range []struct {
			column string
			dst    *float64
		}{
			{ColumnX1, &point.X1},
			{ColumnY1, &point.Y1},
			{ColumnX2, &point.X2},
			{ColumnY2, &point.Y2},
		} {
			if *target.dst, err = parseCell(table.Path, raw, target.column, cols); err != nil {
				return nil, err
			}
		}
		index.Add(point)
	}
	return index, nil
}

// Add appends a point to its video's group.
func (idx *TracingIndex) Add(point TracingPoint) {
	if idx.groups == nil {
		idx.groups = make(map[string][]TracingPoint)
	}
	key := NormalizeName(point.FileName)
	idx.groups[key] = append(idx.groups[key], point)
	idx.points++
}

// Lookup returns the points traced for name, in file order.
func (idx *TracingIndex) Lookup(name string) []TracingPoint {
	if idx == nil {
		return nil
	}
	return idx.groups[NormalizeName(name)]
}

// Len reports the number of indexed points.
func (idx *TracingIndex) Len() int {
	if idx == nil {
		return 0
	}
	return idx.points
}

// Videos reports the number of distinct file names.
func (idx *TracingIndex) Videos() int {
	if idx == nil {
		return 0
	}
	return len(idx.groups)
}
