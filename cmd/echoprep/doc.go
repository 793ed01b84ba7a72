// Package main hosts the echoprep CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration loading, logging, and run
// bookkeeping around the internal packages: split and expand run the dataset
// transforms, runs reads the SQLite ledger, preflight checks paths, and plot
// renders expanded centroids. Each fatal error kind maps to its own exit
// status through batch.ExitCode.
package main
