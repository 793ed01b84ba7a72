// Package dataset reads and writes the CSV tables exchanged by echoprep.
//
// Tables are loaded fully into memory. Generic tables keep every column in
// file order so the split assigner can pass unknown columns through, while the
// typed readers parse metadata rows, volume tracings, and expanded frame rows
// and report malformed values as batch.FormatError with the offending line.
package dataset
