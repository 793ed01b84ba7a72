// Package metrics exports per-run counters as a Prometheus textfile for the
// node_exporter textfile collector.
package metrics
