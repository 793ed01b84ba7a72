// Package preflight provides readiness checks for the files and directories
// echoprep reads and writes.
//
// The CLI "echoprep preflight" command runs RunAll for the configured split
// inputs and, when given expander paths, RunExpand. Checks only inspect
// permissions; nothing is created or parsed.
package preflight
