package main

import (
	"fmt"
	"io"
	"strconv"

	"echoprep/internal/batch"
)

const diagnosticDisplayLimit = 20

// printDiagnostics renders up to limit diagnostics as a table followed by a
// per-kind tally. A non-positive limit prints every diagnostic.
func printDiagnostics(out io.Writer, diags []batch.Diagnostic, limit int) {
	if len(diags) == 0 {
		return
	}
	shown := diags
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	rows := make([][]string, 0, len(shown))
	for _, d := range shown {
		line := ""
		if d.Line > 0 {
			line = strconv.Itoa(d.Line)
		}
		rows = append(rows, []string{string(d.Kind), d.Record, line, d.Message})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Kind", "Record", "Line", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	if hidden := len(diags) - len(shown); hidden > 0 {
		fmt.Fprintf(out, "+%d more diagnostics (see `echoprep runs show`)\n", hidden)
	}

	report := batch.Report{Diagnostics: diags}
	for _, kc := range report.Counts() {
		fmt.Fprintf(out, "%s: %d\n", kc.Kind, kc.Count)
	}
}
