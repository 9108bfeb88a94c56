package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/svpgen/internal/diag"
)

// FileResult is the outcome of expanding one template in ExpandDir.
type FileResult struct {
	Input    string
	Output   string
	Warnings []diag.Warning
	Err      error
}

// DirReport contains statistics about an ExpandDir run.
type DirReport struct {
	Files    []FileResult // Sorted by input path
	Duration time.Duration
}

// Failed returns the files whose expansion failed.
func (r *DirReport) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Warnings returns every warning of every file, in file order.
func (r *DirReport) Warnings() []diag.Warning {
	var all []diag.Warning
	for _, f := range r.Files {
		all = append(all, f.Warnings...)
	}
	return all
}

// Err joins the errors of all failed files, or returns nil.
func (r *DirReport) Err() error {
	var errs []error
	for _, f := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", f.Input, f.Err))
	}
	return errors.Join(errs...)
}

// Summary returns a human-readable summary.
func (r *DirReport) Summary() string {
	return fmt.Sprintf("Templates: %d total (%d failed, %d warnings) | Duration: %s",
		len(r.Files), len(r.Failed()), len(r.Warnings()), r.Duration.Round(time.Millisecond))
}

// Discover returns every template under dir, sorted. Hidden directories are
// skipped.
func (e *Engine) Discover(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), e.inputExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// ExpandDir expands every template under dir into its sibling output file.
// Files are independent, so they run on a bounded worker pool; a failing
// file is recorded in the report and does not stop the others. The returned
// error covers only discovery and cancellation.
func (e *Engine) ExpandDir(ctx context.Context, dir string) (*DirReport, error) {
	start := time.Now()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	paths, err := e.Discover(dir)
	if err != nil {
		return nil, err
	}

	e.logger.Info("expanding directory", "dir", dir, "templates", len(paths), "jobs", e.jobs)

	report := &DirReport{Files: make([]FileResult, len(paths))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fr := FileResult{Input: path, Output: e.OutputPath(path)}
			res, err := e.ExpandFile(path, fr.Output)
			if err != nil {
				e.logger.Error("expansion failed", "file", path, "error", err)
				fr.Err = err
			} else {
				fr.Warnings = res.Warnings
			}

			mu.Lock()
			report.Files[i] = fr
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	e.logger.Info("directory expanded",
		"dir", dir,
		"templates", len(report.Files),
		"failed", len(report.Failed()),
		"duration_ms", report.Duration.Milliseconds())
	return report, nil
}
