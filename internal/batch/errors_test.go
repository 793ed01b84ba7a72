package batch_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"echoprep/internal/batch"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := batch.Wrap(batch.ErrIO, "expand", "open tracings", "failed", base)
	if !errors.Is(err, batch.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"expand", "open tracings", "failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestExitCodeMapping(t *testing.T) {
	formatErr := &batch.FormatError{Path: "meta.csv", Line: 3, Column: "EF", Value: "abc", Err: strconv.ErrSyntax}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"configuration", batch.Wrap(batch.ErrConfiguration, "split", "", "missing dirs", nil), batch.ExitConfiguration},
		{"io", batch.Wrap(batch.ErrIO, "split", "list", "", errors.New("denied")), batch.ExitIO},
		{"format", formatErr, batch.ExitDataFormat},
		{"wrapped format", batch.Wrap(batch.ErrIO, "expand", "read", "", formatErr), batch.ExitDataFormat},
		{"validation", batch.Wrap(batch.ErrValidation, "split", "check", "overlap", nil), batch.ExitValidation},
		{"cancelled", context.Canceled, batch.ExitFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := batch.ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestFormatErrorMessage(t *testing.T) {
	err := &batch.FormatError{Path: "filelist.csv", Line: 7, Column: "ESV", Value: "n/a", Err: strconv.ErrSyntax}
	want := `filelist.csv:7: column ESV: value "n/a": invalid syntax`
	if err.Error() != want {
		t.Fatalf("unexpected message: got %q want %q", err.Error(), want)
	}
	if !errors.Is(err, batch.ErrDataFormat) || !errors.Is(err, strconv.ErrSyntax) {
		t.Fatalf("expected format error to match both marker and cause")
	}
}

func TestReportCounts(t *testing.T) {
	var report batch.Report
	report.Addf(batch.KindOrphan, "a", 0, "no metadata row")
	report.Addf(batch.KindSkipped, "b", 4, "only %d frame", 1)
	report.Addf(batch.KindSkipped, "c", 5, "no tracings")
	report.Add(batch.Diagnostic{Kind: batch.Kind("custom"), Record: "d"})

	if report.Len() != 4 {
		t.Fatalf("expected 4 diagnostics, got %d", report.Len())
	}
	if report.Count(batch.KindSkipped) != 2 {
		t.Fatalf("expected 2 skipped, got %d", report.Count(batch.KindSkipped))
	}
	counts := report.Counts()
	if len(counts) != 3 {
		t.Fatalf("expected 3 kinds, got %+v", counts)
	}
	if counts[0].Kind != batch.KindSkipped || counts[0].Count != 2 {
		t.Fatalf("expected skipped first, got %+v", counts[0])
	}
	if counts[1].Kind != batch.KindOrphan || counts[2].Kind != "custom" {
		t.Fatalf("unexpected order: %+v", counts)
	}
	if got := report.Diagnostics[1].String(); got != "skipped b (line 4): only 1 frame" {
		t.Fatalf("unexpected diagnostic string %q", got)
	}

	var empty *batch.Report
	if empty.Len() != 0 || empty.Count(batch.KindSkipped) != 0 {
		t.Fatal("expected nil report to be empty")
	}
}

func TestRunContext(t *testing.T) {
	ctx := batch.WithCommand(batch.WithRunID(context.Background(), "run-1"), "expand")
	if id, ok := batch.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id %q (%v)", id, ok)
	}
	if cmd, ok := batch.CommandFromContext(ctx); !ok || cmd != "expand" {
		t.Fatalf("unexpected command %q (%v)", cmd, ok)
	}
	if _, ok := batch.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected no run id on empty context")
	}
}
