package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"echoprep/internal/batch"
	"echoprep/internal/fileutil"
)

// Run carries the counters of one finished batch invocation.
type Run struct {
	Command     string
	Status      string
	RecordsRead int
	RowsWritten int
	Diagnostics []batch.KindCount
	Duration    time.Duration
	FinishedAt  time.Time
}

// Recorder holds the metrics of a single CLI invocation in a private
// registry so the textfile only ever contains this process's run.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	recordsRead    *prometheus.GaugeVec
	rowsWritten    *prometheus.GaugeVec
	diagnostics    *prometheus.GaugeVec
	runDuration    *prometheus.GaugeVec
	lastFinishedAt *prometheus.GaugeVec
}

// NewRecorder registers the echoprep collectors on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "echoprep_runs_total",
			Help: "Batch runs finished, by command and status",
		}, []string{"command", "status"}),
		recordsRead: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "echoprep_records_read",
			Help: "Metadata records read by the last run",
		}, []string{"command"}),
		rowsWritten: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "echoprep_rows_written",
			Help: "Output rows written by the last run",
		}, []string{"command"}),
		diagnostics: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "echoprep_diagnostics",
			Help: "Per-record diagnostics raised by the last run, by kind",
		}, []string{"command", "kind"}),
		runDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "echoprep_run_duration_seconds",
			Help: "Wall time of the last run",
		}, []string{"command"}),
		lastFinishedAt: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "echoprep_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}, []string{"command"}),
	}
}

// Observe records one finished run.
func (r *Recorder) Observe(run Run) {
	r.runsTotal.WithLabelValues(run.Command, run.Status).Inc()
	r.recordsRead.WithLabelValues(run.Command).Set(float64(run.RecordsRead))
	r.rowsWritten.WithLabelValues(run.Command).Set(float64(run.RowsWritten))
	for _, kc := range run.Diagnostics {
		r.diagnostics.WithLabelValues(run.Command, string(kc.Kind)).Set(float64(kc.Count))
	}
	r.runDuration.WithLabelValues(run.Command).Set(run.Duration.Seconds())
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	r.lastFinishedAt.WithLabelValues(run.Command).Set(float64(finished.Unix()))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the collected metrics in the node_exporter textfile
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := fileutil.EnsureParentDir(path); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
