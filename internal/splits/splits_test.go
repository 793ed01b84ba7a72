package splits_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"echoprep/internal/batch"
	"echoprep/internal/config"
	"echoprep/internal/dataset"
	"echoprep/internal/splits"
)

func metaTable(t *testing.T, lines ...string) *dataset.Table {
	t.Helper()
	table, err := dataset.DecodeTable(strings.NewReader(strings.Join(lines, "\n")+"\n"), "transformed.csv", 0)
	if err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	return table
}

func fileNames(table *dataset.Table) []string {
	out := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		out = append(out, row.Fields[0])
	}
	return out
}

func TestAssignOrdersAndRewrites(t *testing.T) {
	meta := metaTable(t,
		"FileName,EF,ESV,EDV,Split",
		"a,50,10,20,",
		"b,51,11,21,",
		"c,52,12,22,",
		"d,53,13,23,",
	)
	listings := []*splits.Listing{
		splits.NewListing(dataset.SplitTrain, "train", []string{"a", "c"}),
		splits.NewListing(dataset.SplitVal, "valid", []string{"d"}),
		splits.NewListing(dataset.SplitTest, "test", []string{"b"}),
	}

	result, err := splits.Assign(meta, listings, false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	want := [][]string{
		{"/valid/frames/d", "53", "13", "23", "VAL"},
		{"/train/frames/a", "50", "10", "20", "TRAIN"},
		{"/train/frames/c", "52", "12", "22", "TRAIN"},
		{"/test/frames/b", "51", "11", "21", "TEST"},
	}
	var got [][]string
	for _, row := range result.Table.Rows {
		got = append(got, row.Fields)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(meta.Header, result.Table.Header); diff != "" {
		t.Fatalf("header should keep column order (-want +got):\n%s", diff)
	}
	if result.Report.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %+v", result.Report.Diagnostics)
	}
	counts := map[dataset.Split]int{}
	for _, c := range result.Summary.Splits {
		counts[c.Split] = c.Matched
	}
	if counts[dataset.SplitVal] != 1 || counts[dataset.SplitTrain] != 2 || counts[dataset.SplitTest] != 1 {
		t.Fatalf("unexpected split counts: %+v", result.Summary.Splits)
	}
}

func TestAssignReportsUnmatchedOverlapAndOrphans(t *testing.T) {
	meta := metaTable(t,
		"FileName,EF",
		"a,1",
		"b,2",
		"c,3",
		"a,4",
	)
	listings := []*splits.Listing{
		splits.NewListing(dataset.SplitVal, "valid", []string{"a", "z"}),
		splits.NewListing(dataset.SplitTrain, "train", []string{"a", "b"}),
		splits.NewListing(dataset.SplitTest, "test", nil),
	}

	result, err := splits.Assign(meta, listings, false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// The Split column is appended when absent.
	if diff := cmp.Diff([]string{"FileName", "EF", "Split"}, result.Table.Header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	wantNames := []string{"/valid/frames/a", "/valid/frames/a", "/train/frames/a", "/train/frames/b", "/train/frames/a"}
	if diff := cmp.Diff(wantNames, fileNames(result.Table)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	s := result.Summary
	if s.Unmatched != 1 || s.Overlapping != 2 || s.Orphans != 1 || s.Duplicates != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	// Rows matching at least one split: a, b, a.
	if s.Matched != 3 {
		t.Fatalf("expected 3 matched rows, got %d", s.Matched)
	}
	if result.Report.Count(batch.KindUnmatched) != 1 || result.Report.Count(batch.KindOrphan) != 1 {
		t.Fatalf("unexpected diagnostics %+v", result.Report.Diagnostics)
	}
	for _, d := range result.Report.Diagnostics {
		if d.Kind == batch.KindUnmatched && (d.Record != "c" || d.Line != 4) {
			t.Fatalf("unexpected unmatched diagnostic %+v", d)
		}
		if d.Kind == batch.KindOrphan && d.Record != "z" {
			t.Fatalf("unexpected orphan diagnostic %+v", d)
		}
	}
}

func TestAssignDisjointUnionMatchesMetadata(t *testing.T) {
	lines := []string{"FileName,EF,ESV,EDV,Split"}
	var train, val, test []string
	for i := range 30 {
		name := "video" + string(rune('A'+i%26)) + strings.Repeat("x", i/26)
		lines = append(lines, name+",1,2,3,")
		switch i % 4 {
		case 0:
			train = append(train, name)
		case 1:
			val = append(val, name)
		case 2:
			test = append(test, name)
		}
	}
	meta := metaTable(t, lines...)
	result, err := splits.Assign(meta, []*splits.Listing{
		splits.NewListing(dataset.SplitTrain, "train", train),
		splits.NewListing(dataset.SplitVal, "valid", val),
		splits.NewListing(dataset.SplitTest, "test", test),
	}, false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got, want := len(result.Table.Rows), len(train)+len(val)+len(test); got != want {
		t.Fatalf("expected %d rows, got %d", want, got)
	}
	if result.Summary.Matched != len(result.Table.Rows) {
		t.Fatalf("matched %d != written %d", result.Summary.Matched, len(result.Table.Rows))
	}
	seen := map[string]int{}
	for _, row := range result.Table.Rows {
		seen[row.Fields[0]]++
		prefix := "/" + splits.DirName(dataset.Split(row.Fields[4])) + "/frames/"
		if !strings.HasPrefix(row.Fields[0], prefix) {
			t.Fatalf("row %v has wrong prefix for its split", row.Fields)
		}
	}
	for name, n := range seen {
		if n != 1 {
			t.Fatalf("%s written %d times", name, n)
		}
	}
}

func TestAssignStrictRejectsViolations(t *testing.T) {
	meta := metaTable(t, "FileName,EF", "a,1", "b,2")
	result, err := splits.Assign(meta, []*splits.Listing{
		splits.NewListing(dataset.SplitTrain, "train", []string{"a"}),
	}, true)
	if !errors.Is(err, batch.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if result == nil || result.Table != nil || result.Summary.Unmatched != 1 {
		t.Fatalf("expected summary without table, got %+v", result)
	}
}

func TestListNamesStripsSuffixAndSkipsDirs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0X1.png", "0X2.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0o755); err != nil {
		t.Fatal(err)
	}
	names, err := splits.ListNames(dir, ".png")
	if err != nil {
		t.Fatalf("ListNames: %v", err)
	}
	if diff := cmp.Diff([]string{"0X1", "0X2", "notes.txt"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	if _, err := splits.ListNames(filepath.Join(dir, "missing"), ".png"); !errors.Is(err, batch.ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestAssignerRunWritesOutput(t *testing.T) {
	base := t.TempDir()
	cfg := config.Split{
		MetadataPath: filepath.Join(base, "csvs", "transformed.csv"),
		OutputPath:   filepath.Join(base, "csvs", "out", "results.csv"),
		ImageSuffix:  ".png",
		Dirs: config.SplitDirs{
			Train: filepath.Join(base, "train", "frames"),
			Val:   filepath.Join(base, "valid", "frames"),
			Test:  filepath.Join(base, "test", "frames"),
		},
	}
	for dir, files := range map[string][]string{
		cfg.Dirs.Train: {"a.png"},
		cfg.Dirs.Val:   {"b.png"},
		cfg.Dirs.Test:  {"c.png"},
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, f := range files {
			if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.MetadataPath), 0o755); err != nil {
		t.Fatal(err)
	}
	meta := "FileName,EF,ESV,EDV,Split\na,50,10,20,TRAIN\nb,51,11,21,TRAIN\nc,52,12,22,TRAIN\n"
	if err := os.WriteFile(cfg.MetadataPath, []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := splits.NewAssigner(cfg, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Summary.RowsWritten != 3 {
		t.Fatalf("expected 3 rows, got %d", result.Summary.RowsWritten)
	}
	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "FileName,EF,ESV,EDV,Split\n" +
		"/valid/frames/b,51,11,21,VAL\n" +
		"/train/frames/a,50,10,20,TRAIN\n" +
		"/test/frames/c,52,12,22,TEST\n"
	if string(data) != want {
		t.Fatalf("unexpected output:\n%s", data)
	}
}

func TestAssignerRunRejectsIncompleteConfig(t *testing.T) {
	_, err := splits.NewAssigner(config.Split{MetadataPath: "meta.csv"}, nil).Run(context.Background())
	if !errors.Is(err, batch.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
