package ledger

import (
	"time"
)

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Run is one recorded CLI invocation.
type Run struct {
	ID              string            `json:"id"`
	Command         string            `json:"command"`
	Status          Status            `json:"status"`
	Inputs          map[string]string `json:"inputs,omitempty"`
	OutputPath      string            `json:"output_path,omitempty"`
	RecordsRead     int               `json:"records_read"`
	RowsWritten     int               `json:"rows_written"`
	DiagnosticCount int               `json:"diagnostic_count"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at,omitzero"`
}

// Duration reports how long a finished run took, or zero while running.
func (r *Run) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Completion carries the final counters of a run.
type Completion struct {
	Status      Status
	RecordsRead int
	RowsWritten int
	Err         error
}
