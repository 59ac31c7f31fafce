package conformance

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FileReport summarizes one fixture file's pass/fail counts, in case a
// caller wants a per-opcode breakdown rather than one global total.
type FileReport struct {
	Path    string
	Passed  int
	Failed  int
	Results []Result
}

// RunSet loads and runs every *.json.gz fixture under dir concurrently,
// bounded by maxConcurrency, and returns one FileReport per file sorted
// by path. A load error for one file fails only that file's report; it
// does not abort the others.
func RunSet(ctx context.Context, dir string, maxConcurrency int) ([]FileReport, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json.gz"))
	if err != nil {
		return nil, fmt.Errorf("globbing fixture directory: %w", err)
	}

	reports := make([]FileReport, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	var mu sync.Mutex
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			report := runFile(path)
			mu.Lock()
			reports[i] = report
			mu.Unlock()
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	return reports, nil
}

func runFile(path string) FileReport {
	report := FileReport{Path: path}

	cases, err := LoadFile(path)
	if err != nil {
		report.Failed = 1
		report.Results = []Result{{Name: path, Passed: false, Mismatches: []string{err.Error()}}}
		return report
	}

	report.Results = make([]Result, len(cases))
	for i, tc := range cases {
		result := Run(tc)
		report.Results[i] = result
		if result.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	return report
}
