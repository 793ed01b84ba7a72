// Package batch defines the error taxonomy, per-record diagnostics, and run
// context shared by the split and expand transforms.
//
// Fatal problems are returned as errors tagged with one of the exported
// sentinel markers (configuration, IO, data format, validation, computation)
// so the CLI can choose an exit code with errors.Is. Problems that only affect
// a single record are collected as Diagnostic values in a Report and returned
// alongside the successful result instead of aborting the run.
package batch
