package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// timeLayout keeps fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, command, status, inputs_json, output_path, records_read, rows_written, diagnostic_count, error_message, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run        Run
		status     string
		inputs     sql.NullString
		output     sql.NullString
		errMessage sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Command,
		&status,
		&inputs,
		&output,
		&run.RecordsRead,
		&run.RowsWritten,
		&run.DiagnosticCount,
		&errMessage,
		&startedAt,
		&finishedAt,
	); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Status = Status(status)
	run.OutputPath = output.String
	run.ErrorMessage = errMessage.String
	if inputs.Valid && inputs.String != "" {
		if err := json.Unmarshal([]byte(inputs.String), &run.Inputs); err != nil {
			return nil, fmt.Errorf("decode inputs for run %s: %w", run.ID, err)
		}
	}
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	return &run, nil
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
