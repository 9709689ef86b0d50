package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/satindergrewal/beatlight/internal/batch"
)

// Terminal presentation. Colors are only used for status markers.
const (
	ansiReset = "\033[0m"
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiGray  = "\033[90m"

	markOK   = ansiGreen + "✔" + ansiReset
	markFail = ansiRed + "✘" + ansiReset
	markSkip = ansiGray + "-" + ansiReset

	rule = "---------------------------"
)

func printResults(w io.Writer, results []batch.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", markFail, filepath.Base(r.Path), r.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", markOK, filepath.Base(r.Path))
	}
}

func printSummary(w io.Writer, sum batch.Summary) {
	fmt.Fprintln(w, rule)
	printResults(w, sum.Documents)
	fmt.Fprintf(w, "%s %d found, %d processed, %d skipped, %s %d failed\n",
		markSkip, sum.Found, sum.Processed, sum.Skipped, markFail, sum.Failed)
}
