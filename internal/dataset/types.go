package dataset

import (
	"golang.org/x/text/unicode/norm"
)

// Split is the dataset partition label carried in the Split column.
type Split string

const (
	SplitTrain Split = "TRAIN"
	SplitVal   Split = "VAL"
	SplitTest  Split = "TEST"
)

// Column names shared by the input and output tables.
const (
	ColumnFileName = "FileName"
	ColumnEF       = "EF"
	ColumnESV      = "ESV"
	ColumnEDV      = "EDV"
	ColumnSplit    = "Split"
	ColumnFrame    = "Frame"
	ColumnX1       = "X1"
	ColumnY1       = "Y1"
	ColumnX2       = "X2"
	ColumnY2       = "Y2"
	ColumnES       = "ES"
	ColumnX        = "x"
	ColumnY        = "y"
)

// OutputHeader is the column order of the expanded frame table.
var OutputHeader = []string{
	ColumnFileName,
	ColumnES,
	ColumnX,
	ColumnY,
	ColumnEF,
	ColumnEDV,
	ColumnESV,
	ColumnSplit,
}

// MetadataRow identifies one video and its clinical measurements.
type MetadataRow struct {
	FileName string
	EF       float64
	ESV      float64
	EDV      float64
	Split    Split
	Line     int
}

// TracingPoint is one polygon point pair of a traced frame.
type TracingPoint struct {
	FileName string
	Frame    int
	X1       float64
	Y1       float64
	X2       float64
	Y2       float64
	Line     int
}

// OutputRow is one expanded frame: the centroid of the frame's tracing plus
// the measurements of its video. ES is true for the later of the two frames.
type OutputRow struct {
	FileName string
	ES       bool
	X        float64
	Y        float64
	EF       float64
	EDV      float64
	ESV      float64
	Split    Split
}

// Record renders the row in OutputHeader order.
func (r OutputRow) Record() []string {
	return []string{
		r.FileName,
		FormatBool(r.ES),
		FormatFloat(r.X),
		FormatFloat(r.Y),
		FormatFloat(r.EF),
		FormatFloat(r.EDV),
		FormatFloat(r.ESV),
		string(r.Split),
	}
}

// NormalizeName returns the NFC form of a file name so names read from CSV
// cells and from directory listings compare equal regardless of the
// filesystem's Unicode normalization.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}
