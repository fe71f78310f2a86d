package snap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ImportRequest describes one import invocation.
type ImportRequest struct {
	SourceVolume string
	Date         string // required, DateFormat; only files captured on this day are imported
	DryRun       bool
}

// ImportResult is the outcome of an import run.
type ImportResult struct {
	ImportedCount int
	SkippedCount  int
	DestDir       string
}

// FollowUpUpload reports whether the import should be followed by an
// upload of DestDir. A dry-run import never creates the destination
// folder, so its preview upload only makes sense when the folder already
// exists from an earlier run.
func (r *ImportResult) FollowUpUpload(dryRun bool) bool {
	if dryRun {
		info, err := os.Stat(r.DestDir)
		return err == nil && info.IsDir()
	}
	return r.ImportedCount > 0
}

// Importer copies media files captured on a single day from a source volume
// into a date-named folder under the local import base.
//
// A destination file with the same name is skipped without comparing
// content; re-importing the same card is therefore idempotent, but two
// different photos that happen to share a name collide silently. This
// matches the original tooling and is a documented gap.
//
// A copy failure aborts the whole run. Files copied before the failure stay
// in place. The caller is expected to follow a successful import with an
// unbounded upload of DestDir.
type Importer struct {
	scanner    MediaScanner
	dater      CaptureDater
	importBase string
	logger     Logger
}

// NewImporter creates an Importer writing below importBase.
func NewImporter(scanner MediaScanner, dater CaptureDater, importBase string, logger Logger) *Importer {
	return &Importer{
		scanner:    scanner,
		dater:      dater,
		importBase: importBase,
		logger:     logger,
	}
}

// Import runs the import for req, reporting progress through fn.
func (im *Importer) Import(ctx context.Context, req ImportRequest, fn ProgressFunc) (*ImportResult, error) {
	if req.Date == "" {
		return nil, fmt.Errorf("import date is required")
	}
	info, err := os.Stat(req.SourceVolume)
	if err != nil {
		return nil, fmt.Errorf("source volume not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source volume is not a directory: %s", req.SourceVolume)
	}

	// 2024-12-25 imports into <base>/20241225.
	destDir := filepath.Join(im.importBase, strings.ReplaceAll(req.Date, "-", ""))
	if !req.DryRun {
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return nil, fmt.Errorf("creating destination directory: %w", err)
		}
	}

	files, err := im.scanner.Scan(req.SourceVolume)
	if err != nil {
		return nil, fmt.Errorf("scanning source volume: %w", err)
	}

	var matched []FileRecord
	for _, f := range files {
		captured := im.dater.CaptureTime(f.Path, f.ModTime)
		if DayOf(captured) == req.Date {
			matched = append(matched, f)
		}
	}
	report(fn, ProgressEvent{Kind: ProgressScanned, Total: len(matched)})

	result := &ImportResult{DestDir: destDir}
	for _, f := range matched {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("import interrupted: %w", err)
		}
		report(fn, ProgressEvent{Kind: ProgressFile, File: f.Name})

		destPath := filepath.Join(destDir, f.Name)
		if _, err := os.Stat(destPath); err == nil {
			result.SkippedCount++
			im.logger.Debug("skipped", "file", f.Name, "reason", SkipExists)
			report(fn, ProgressEvent{Kind: ProgressSkipped, File: f.Name, Reason: SkipExists})
			continue
		}

		if req.DryRun {
			im.logger.Info("would import", "file", f.Name, "dest", destPath)
		} else {
			if err := copyFile(f.Path, destPath); err != nil {
				return result, fmt.Errorf("copying %s: %w", f.Name, err)
			}
			im.logger.Info("imported", "file", f.Name, "dest", destPath)
		}
		result.ImportedCount++
		report(fn, ProgressEvent{Kind: ProgressImported, File: f.Name})
	}

	im.logger.Info("import complete",
		"date", req.Date,
		"imported", result.ImportedCount,
		"skipped", result.SkippedCount,
		"dest", destDir,
		"dry_run", req.DryRun,
	)
	return result, nil
}

// copyFile copies src to dest byte-for-byte via a temp file in the
// destination directory, so a partial copy never lands under the final name.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".import-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("writing data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
