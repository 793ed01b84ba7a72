package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"echoprep/internal/batch"
	"echoprep/internal/ledger"
	"echoprep/internal/testsupport"
)

func TestBeginAssignsIDAndRunningStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	run := &ledger.Run{
		Command:    "expand",
		Inputs:     map[string]string{"filelist": "/data/FileList.csv"},
		OutputPath: "/data/out.csv",
	}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(run.ID) != 36 {
		t.Fatalf("expected uuid run id, got %q", run.ID)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != ledger.StatusRunning {
		t.Fatalf("expected running status, got %q", got.Status)
	}
	if got.Inputs["filelist"] != "/data/FileList.csv" {
		t.Fatalf("inputs not persisted: %#v", got.Inputs)
	}
	if got.Duration() != 0 {
		t.Fatalf("running run should report zero duration, got %s", got.Duration())
	}
}

func TestFinishStoresCountersAndDiagnostics(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	run := &ledger.Run{ID: "run-1", Command: "expand"}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	var report batch.Report
	report.Addf(batch.KindSkipped, "0X2B", 3, "only %d traced frame", 1)
	report.Addf(batch.KindComputation, "0X9Z", 0, "centroid is not finite")

	done := ledger.Completion{Status: ledger.StatusSucceeded, RecordsRead: 3, RowsWritten: 4}
	if err := store.Finish(ctx, run, done, &report); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != ledger.StatusSucceeded || got.RecordsRead != 3 || got.RowsWritten != 4 || got.DiagnosticCount != 2 {
		t.Fatalf("unexpected run after finish: %+v", got)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("expected finished_at to be set")
	}

	diags, err := store.Diagnostics(ctx, "run-1")
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	if diff := cmp.Diff(report.Diagnostics, diags); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestFinishRecordsError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	run := &ledger.Run{Command: "split"}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	done := ledger.Completion{Status: ledger.StatusFailed, Err: errors.New("metadata missing")}
	if err := store.Finish(ctx, run, done, nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != ledger.StatusFailed || got.ErrorMessage != "metadata missing" {
		t.Fatalf("unexpected failed run: %+v", got)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		run := &ledger.Run{ID: id, Command: "expand", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Begin(ctx, run); err != nil {
			t.Fatalf("Begin %s: %v", id, err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, run := range runs {
		ids = append(ids, run.ID)
	}
	if diff := cmp.Diff([]string{"third", "second"}, ids); diff != "" {
		t.Fatalf("list order mismatch (-want +got):\n%s", diff)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestGetResolvesPrefixes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"abc123", "abd456", "a_c999"} {
		if err := store.Begin(ctx, &ledger.Run{ID: id, Command: "split"}); err != nil {
			t.Fatalf("Begin %s: %v", id, err)
		}
	}

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get prefix: %v", err)
	}
	if got.ID != "abc123" {
		t.Fatalf("expected abc123, got %s", got.ID)
	}
	if _, err := store.Get(ctx, "ab"); !errors.Is(err, ledger.ErrAmbiguous) {
		t.Fatalf("expected ErrAmbiguous, got %v", err)
	}
	if _, err := store.Get(ctx, "zzz"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// "_" is matched literally rather than as a LIKE wildcard.
	got, err = store.Get(ctx, "a_")
	if err != nil {
		t.Fatalf("Get underscore prefix: %v", err)
	}
	if got.ID != "a_c999" {
		t.Fatalf("expected a_c999, got %s", got.ID)
	}
}

func TestPruneKeepsNewestAndCascades(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var report batch.Report
	report.Addf(batch.KindOrphan, "x", 0, "no metadata row")
	for i, id := range []string{"old", "new"} {
		run := &ledger.Run{ID: id, Command: "split", StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.Begin(ctx, run); err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if err := store.Finish(ctx, run, ledger.Completion{Status: ledger.StatusSucceeded}, &report); err != nil {
			t.Fatalf("Finish: %v", err)
		}
	}

	removed, err := store.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected old run gone, got %v", err)
	}
	diags, err := store.Diagnostics(ctx, "old")
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("expected diagnostics cascaded, got %d", len(diags))
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := ledger.Open(path); !errors.Is(err, ledger.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
