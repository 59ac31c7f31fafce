// Command i8086conform runs a directory of gzip+JSON single-step
// fixtures against the machine package and reports pass/fail counts.
//
// Usage:
//
//	i8086conform -dir machine/testdata/8088
//	i8086conform -dir machine/testdata/8088 -v
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"go8086vm/machine/conformance"
)

func main() {
	dir := flag.String("dir", "machine/testdata/8088", "directory of *.json.gz fixture files")
	verbose := flag.Bool("v", false, "print every mismatch, not just the summary")
	concurrency := flag.Int("j", runtime.NumCPU(), "maximum number of fixture files checked concurrently")
	flag.Parse()

	reports, err := conformance.RunSet(context.Background(), *dir, *concurrency)
	if err != nil {
		fmt.Fprintln(os.Stderr, "i8086conform:", err)
		os.Exit(1)
	}

	totalPassed, totalFailed := 0, 0
	for _, report := range reports {
		totalPassed += report.Passed
		totalFailed += report.Failed
		status := "ok"
		if report.Failed > 0 {
			status = "FAIL"
		}
		fmt.Printf("%-4s %s (%d/%d)\n", status, report.Path, report.Passed, report.Passed+report.Failed)

		if *verbose {
			for _, result := range report.Results {
				if result.Passed {
					continue
				}
				fmt.Printf("  %s:\n", result.Name)
				for _, m := range result.Mismatches {
					fmt.Printf("    %s\n", m)
				}
			}
		}
	}

	fmt.Printf("\n%d passed, %d failed\n", totalPassed, totalFailed)
	if totalFailed > 0 {
		os.Exit(1)
	}
}
