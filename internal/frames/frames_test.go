package frames_test

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"echoprep/internal/batch"
	"echoprep/internal/config"
	"echoprep/internal/dataset"
	"echoprep/internal/fileutil"
	"echoprep/internal/frames"
)

func point(name string, frame int, x1, y1, x2, y2 float64) dataset.TracingPoint {
	return dataset.TracingPoint{FileName: name, Frame: frame, X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func TestCentroidAveragesBothPoints(t *testing.T) {
	x, y, err := frames.Centroid([]dataset.TracingPoint{
		point("v", 5, 0, 0, 2, 0),
		point("v", 5, 0, 2, 2, 2),
	})
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	if x != 1 || y != 1 {
		t.Fatalf("expected (1,1), got (%v,%v)", x, y)
	}

	x, y, err = frames.Centroid([]dataset.TracingPoint{point("v", 12, 4, 4, 6, 4)})
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	if x != 5 || y != 4 {
		t.Fatalf("expected (5,4), got (%v,%v)", x, y)
	}
}

func TestCentroidRejectsEmptyAndNonFinite(t *testing.T) {
	if _, _, err := frames.Centroid(nil); !errors.Is(err, batch.ErrComputation) {
		t.Fatalf("expected computation error for empty frame, got %v", err)
	}
	_, _, err := frames.Centroid([]dataset.TracingPoint{point("v", 1, math.Inf(1), 0, 0, 0)})
	if !errors.Is(err, batch.ErrComputation) {
		t.Fatalf("expected computation error for infinite coordinate, got %v", err)
	}
}

func TestExpandRecordSelectsFirstTwoFrames(t *testing.T) {
	record := dataset.MetadataRow{FileName: "0X1A", EF: 55.5, ESV: 20, EDV: 45, Split: dataset.SplitTrain, Line: 2}
	points := []dataset.TracingPoint{
		point("0X1A", 12, 4, 4, 6, 4),
		point("0X1A", 5, 0, 0, 2, 0),
		point("0X1A", 30, 100, 100, 100, 100),
		point("0X1A", 5, 0, 2, 2, 2),
	}
	rows, diag := frames.ExpandRecord(record, points)
	if diag != nil {
		t.Fatalf("unexpected diagnostic %+v", diag)
	}
	want := []dataset.OutputRow{
		{FileName: "0X1A_5", ES: false, X: 1, Y: 1, EF: 55.5, EDV: 45, ESV: 20, Split: dataset.SplitTrain},
		{FileName: "0X1A_12", ES: true, X: 5, Y: 4, EF: 55.5, EDV: 45, ESV: 20, Split: dataset.SplitTrain},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandRecordSkips(t *testing.T) {
	record := dataset.MetadataRow{FileName: "short", Line: 7}
	tests := []struct {
		name   string
		points []dataset.TracingPoint
	}{
		{"no tracings", nil},
		{"single row", []dataset.TracingPoint{point("short", 1, 0, 0, 1, 1)}},
		{"one frame", []dataset.TracingPoint{point("short", 1, 0, 0, 1, 1), point("short", 1, 2, 2, 3, 3)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rows, diag := frames.ExpandRecord(record, tc.points)
			if rows != nil {
				t.Fatalf("expected no rows, got %+v", rows)
			}
			if diag == nil || diag.Kind != batch.KindSkipped || diag.Record != "short" || diag.Line != 7 {
				t.Fatalf("unexpected diagnostic %+v", diag)
			}
		})
	}
}

func TestExpandRecordReportsComputationFailure(t *testing.T) {
	record := dataset.MetadataRow{FileName: "nan"}
	rows, diag := frames.ExpandRecord(record, []dataset.TracingPoint{
		point("nan", 1, math.NaN(), 0, 0, 0),
		point("nan", 2, 0, 0, 0, 0),
	})
	if rows != nil || diag == nil || diag.Kind != batch.KindComputation {
		t.Fatalf("expected computation diagnostic, got rows=%+v diag=%+v", rows, diag)
	}
}

func TestExpansionContinuesPastSkippedRecord(t *testing.T) {
	var index dataset.TracingIndex
	for _, p := range []dataset.TracingPoint{
		point("a", 1, 0, 0, 2, 2), point("a", 2, 2, 2, 4, 4),
		point("b", 3, 0, 0, 0, 0),
		point("c", 8, 1, 1, 1, 1), point("c", 9, 3, 3, 3, 3),
	} {
		index.Add(p)
	}
	records := []dataset.MetadataRow{{FileName: "a"}, {FileName: "b"}, {FileName: "c"}}

	expansion := frames.NewExpansion(records, &index)
	var expanded, skipped []string
	for outcome := range expansion.All() {
		if outcome.Skipped() {
			skipped = append(skipped, outcome.Record.FileName)
			continue
		}
		expanded = append(expanded, outcome.Rows[0].FileName, outcome.Rows[1].FileName)
	}
	if diff := cmp.Diff([]string{"a_1", "a_2", "c_8", "c_9"}, expanded); diff != "" {
		t.Fatalf("expanded mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, skipped); diff != "" {
		t.Fatalf("skipped mismatch (-want +got):\n%s", diff)
	}
	if expansion.Err() != nil {
		t.Fatalf("unexpected error %v", expansion.Err())
	}

	for range expansion.All() {
		t.Fatal("second iteration should yield nothing")
	}
	if !errors.Is(expansion.Err(), frames.ErrConsumed) {
		t.Fatalf("expected ErrConsumed, got %v", expansion.Err())
	}
}

func writeInputs(t *testing.T, dir string) frames.Inputs {
	t.Helper()
	filelist := strings.Join([]string{
		"FileName,EF,ESV,EDV,FrameHeight,FrameWidth,FPS,NumberOfFrames,Split",
		"0X1A,55.5,20,45,112,112,50,200,TRAIN",
		"0X2B,60,22,50,112,112,50,200,VAL",
		"0X3C,61.25,23,51,112,112,50,200,TEST",
		"",
	}, "\n")
	tracings := strings.Join([]string{
		"FileName,X1,Y1,X2,Y2,Frame",
		"0X1A,0,0,2,0,5",
		"0X1A,0,2,2,2,5",
		"0X1A,4,4,6,4,12",
		"0X2B,1,1,1,1,3",
		"0X3C,10,10,20,20,40",
		"0X3C,0,0,0,0,7",
		"",
	}, "\n")
	inputs := frames.Inputs{
		FileList: filepath.Join(dir, "FileList.csv"),
		Tracings: filepath.Join(dir, "VolumeTracings.csv"),
		Output:   filepath.Join(dir, "out", "frames.csv"),
	}
	if err := os.WriteFile(inputs.FileList, []byte(filelist), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(inputs.Tracings, []byte(tracings), 0o644); err != nil {
		t.Fatal(err)
	}
	return inputs
}

func TestExpanderRunWritesEveryColumn(t *testing.T) {
	inputs := writeInputs(t, t.TempDir())
	expander := frames.NewExpander(config.Expand{MaxMetadataRows: 10030, LockOutput: true}, nil)

	result, err := expander.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := result.Summary
	if s.RecordsRead != 3 || s.RecordsExpanded != 2 || s.RecordsSkipped != 1 || s.RowsWritten != 4 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if result.Report.Count(batch.KindSkipped) != 1 || result.Report.Diagnostics[0].Record != "0X2B" {
		t.Fatalf("unexpected diagnostics %+v", result.Report.Diagnostics)
	}

	file, err := os.Open(inputs.Output)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := [][]string{
		dataset.OutputHeader,
		{"0X1A_5", "False", "1.0", "1.0", "55.5", "45.0", "20.0", "TRAIN"},
		{"0X1A_12", "True", "5.0", "4.0", "55.5", "45.0", "20.0", "TRAIN"},
		{"0X3C_7", "False", "0.0", "0.0", "61.25", "51.0", "23.0", "TEST"},
		{"0X3C_40", "True", "15.0", "15.0", "61.25", "51.0", "23.0", "TEST"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	for _, record := range records {
		if len(record) != len(dataset.OutputHeader) {
			t.Fatalf("row %v does not have %d columns", record, len(dataset.OutputHeader))
		}
	}
	relock, err := fileutil.LockOutput(inputs.Output)
	if err != nil {
		t.Fatalf("expected lock to be released: %v", err)
	}
	_ = relock.Release()
}

func TestExpanderRunHonoursRowCap(t *testing.T) {
	inputs := writeInputs(t, t.TempDir())
	result, err := frames.NewExpander(config.Expand{MaxMetadataRows: 1}, nil).Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Summary.RecordsRead != 1 || result.Summary.RowsWritten != 2 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}
}

func TestExpanderRunRefusesLockedOutput(t *testing.T) {
	inputs := writeInputs(t, t.TempDir())
	lock, err := fileutil.LockOutput(inputs.Output)
	if err != nil {
		t.Fatalf("LockOutput: %v", err)
	}
	defer lock.Release()

	_, err = frames.NewExpander(config.Expand{LockOutput: true}, nil).Run(context.Background(), inputs)
	if !errors.Is(err, fileutil.ErrLocked) || !errors.Is(err, batch.ErrIO) {
		t.Fatalf("expected locked io error, got %v", err)
	}
}

func TestExpanderRunStopsOnCancel(t *testing.T) {
	inputs := writeInputs(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := frames.NewExpander(config.Expand{}, nil).Run(ctx, inputs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Summary.RowsWritten != 0 {
		t.Fatalf("expected empty partial result, got %+v", result)
	}
	data, err := os.ReadFile(inputs.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "FileName,ES,x,y,EF,EDV,ESV,Split\n" {
		t.Fatalf("expected header only, got %q", data)
	}
}

func TestExpanderRunReportsMalformedInput(t *testing.T) {
	dir := t.TempDir()
	inputs := writeInputs(t, dir)
	if err := os.WriteFile(inputs.FileList, []byte("FileName,EF,ESV,EDV,Split\n0X1A,abc,1,2,TRAIN\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := frames.NewExpander(config.Expand{}, nil).Run(context.Background(), inputs)
	if batch.ExitCode(err) != batch.ExitDataFormat {
		t.Fatalf("expected data format exit code, got %v", err)
	}
	if _, statErr := os.Stat(inputs.Output); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("expected no output for malformed input")
	}
}
