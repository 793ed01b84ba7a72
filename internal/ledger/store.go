package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"echoprep/internal/batch"
	"echoprep/internal/config"
	"echoprep/internal/fileutil"
)

var (
	// ErrNotFound reports that no run matches the requested id.
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguous reports that an id prefix matches several runs.
	ErrAmbiguous = errors.New("run id prefix is ambiguous")
)

// Store records batch runs and their diagnostics in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// OpenFromConfig opens the ledger at cfg.LedgerPath(), creating its
// directory if needed.
func OpenFromConfig(cfg *config.Config) (*Store, error) {
	return Open(cfg.LedgerPath())
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if err := fileutil.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin records a running invocation. An empty run.ID is replaced with a
// new UUID.
func (s *Store) Begin(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()
	run.Status = StatusRunning

	inputs, err := marshalInputs(run.Inputs)
	if err != nil {
		return err
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (id, command, status, inputs_json, output_path, started_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.Command,
			run.Status,
			inputs,
			nullableString(run.OutputPath),
			run.StartedAt.Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// Finish stores the outcome of run together with every diagnostic in report.
func (s *Store) Finish(ctx context.Context, run *Run, done Completion, report *batch.Report) error {
	if run == nil {
		return errors.New("run is nil")
	}
	run.Status = done.Status
	run.RecordsRead = done.RecordsRead
	run.RowsWritten = done.RowsWritten
	run.DiagnosticCount = report.Len()
	run.FinishedAt = time.Now().UTC()
	run.ErrorMessage = ""
	if done.Err != nil {
		run.ErrorMessage = done.Err.Error()
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin finish tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`UPDATE runs
             SET status = ?, records_read = ?, rows_written = ?, diagnostic_count = ?,
                 error_message = ?, finished_at = ?
             WHERE id = ?`,
			run.Status,
			run.RecordsRead,
			run.RowsWritten,
			run.DiagnosticCount,
			nullableString(run.ErrorMessage),
			run.FinishedAt.Format(timeLayout),
			run.ID,
		); err != nil {
			return fmt.Errorf("update run: %w", err)
		}

		if report.Len() > 0 {
			stmt, err := tx.PrepareContext(ctx,
				`INSERT INTO diagnostics (run_id, kind, record, line, message) VALUES (?, ?, ?, ?, ?)`)
			if err != nil {
				return fmt.Errorf("prepare diagnostics: %w", err)
			}
			defer stmt.Close()
			for _, d := range report.Diagnostics {
				if _, err := stmt.ExecContext(ctx, run.ID, string(d.Kind), d.Record, d.Line, d.Message); err != nil {
					return fmt.Errorf("insert diagnostic: %w", err)
				}
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit finish: %w", err)
		}
		return nil
	})
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run whose id equals or uniquely starts with id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
		id, escapeLike(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == id {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}

// Diagnostics returns the diagnostics recorded for runID in insertion order.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]batch.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, record, line, message FROM diagnostics WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []batch.Diagnostic
	for rows.Next() {
		var (
			d    batch.Diagnostic
			kind string
		)
		if err := rows.Scan(&kind, &d.Record, &d.Line, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Kind = batch.Kind(kind)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Prune deletes all but the keep most recent runs and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC, id LIMIT ?)`, keep)
		if err != nil {
			return fmt.Errorf("prune runs: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

func marshalInputs(inputs map[string]string) (sql.NullString, error) {
	if len(inputs) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(inputs)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal inputs: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
