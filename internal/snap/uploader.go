package snap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// UploadRequest describes one upload invocation.
type UploadRequest struct {
	SourceDir string
	StartDate string // inclusive, DateFormat; empty = unbounded
	EndDate   string // inclusive, DateFormat; empty = unbounded
	DryRun    bool
}

// Summary is the outcome of an upload run.
// TotalBytes accumulates the source size of every file that was (or, in
// dry-run mode, would have been) transferred.
type Summary struct {
	FileCount   int
	UploadCount int
	SkipCount   int
	TotalBytes  int64
}

// Uploader walks a source directory and transfers new media files to the
// object store. Per file it applies, in order: exclusion patterns, the date
// range, ledger dedup, and classification. Files surviving all checks are
// stored at {category-prefix}/{year-month}/{filename} and recorded in the
// ledger. A transfer failure aborts the whole run; files uploaded before the
// failure stay uploaded and recorded.
type Uploader struct {
	store            ObjectStore
	ledger           Ledger
	scanner          MediaScanner
	dater            CaptureDater
	classifier       *Classifier
	excluder         Excluder
	prefixRaw        string
	prefixCompressed string
	storageClass     string
	logger           Logger
}

// NewUploader creates an Uploader with the provided dependencies.
func NewUploader(store ObjectStore, ledger Ledger, scanner MediaScanner, dater CaptureDater,
	classifier *Classifier, excluder Excluder, prefixRaw, prefixCompressed, storageClass string,
	logger Logger) *Uploader {
	return &Uploader{
		store:            store,
		ledger:           ledger,
		scanner:          scanner,
		dater:            dater,
		classifier:       classifier,
		excluder:         excluder,
		prefixRaw:        prefixRaw,
		prefixCompressed: prefixCompressed,
		storageClass:     storageClass,
		logger:           logger,
	}
}

// Upload runs the pipeline for req, reporting progress through fn.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest, fn ProgressFunc) (*Summary, error) {
	info, err := os.Stat(req.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("source directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source is not a directory: %s", req.SourceDir)
	}

	if !req.DryRun {
		if err := u.store.ValidateSetup(ctx); err != nil {
			return nil, fmt.Errorf("validating store: %w", err)
		}
	}

	files, err := u.scanner.Scan(req.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("scanning source directory: %w", err)
	}

	summary := &Summary{FileCount: len(files)}
	report(fn, ProgressEvent{Kind: ProgressScanned, Total: len(files)})

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("upload interrupted: %w", err)
		}
		report(fn, ProgressEvent{Kind: ProgressFile, File: f.Name})

		if u.excluder != nil && u.excluder.Excluded(f.Name) {
			u.skip(fn, summary, f.Name, SkipExcluded)
			continue
		}

		captured := u.dater.CaptureTime(f.Path, f.ModTime)
		if !InRange(DayOf(captured), req.StartDate, req.EndDate) {
			u.skip(fn, summary, f.Name, SkipOutOfRange)
			continue
		}

		uploaded, err := u.ledger.IsUploaded(req.SourceDir, f.Path)
		if err != nil {
			return summary, fmt.Errorf("checking ledger for %s: %w", f.Name, err)
		}
		if uploaded {
			u.skip(fn, summary, f.Name, SkipAlreadyUploaded)
			continue
		}

		category := u.classifier.Classify(f.Name)
		if category == CategoryUnknown {
			u.skip(fn, summary, f.Name, SkipUnknownType)
			continue
		}

		key := u.objectKey(category, captured, f.Name)
		summary.TotalBytes += f.Size

		if req.DryRun {
			u.logger.Info("would upload", "file", f.Name, "key", key, "bytes", f.Size)
			report(fn, ProgressEvent{Kind: ProgressUploaded, File: f.Name})
			continue
		}

		if err := u.transfer(ctx, f, key); err != nil {
			return summary, err
		}
		if err := u.ledger.RecordUploaded(req.SourceDir, f.Path); err != nil {
			return summary, fmt.Errorf("recording upload of %s: %w", f.Name, err)
		}
		summary.UploadCount++
		u.logger.Info("uploaded", "file", f.Name, "key", key, "bytes", f.Size)
		report(fn, ProgressEvent{Kind: ProgressUploaded, File: f.Name})
	}

	u.logger.Info("upload complete",
		"files", summary.FileCount,
		"uploaded", summary.UploadCount,
		"skipped", summary.SkipCount,
		"bytes", summary.TotalBytes,
		"dry_run", req.DryRun,
	)
	return summary, nil
}

func (u *Uploader) skip(fn ProgressFunc, summary *Summary, name, reason string) {
	summary.SkipCount++
	u.logger.Debug("skipped", "file", name, "reason", reason)
	report(fn, ProgressEvent{Kind: ProgressSkipped, File: name, Reason: reason})
}

// objectKey builds the destination key: {prefix}/{year-month}/{filename}.
// Year-month bucketing uses the same capture date as the range filter, so
// EXIF wins over mtime whenever it is available.
func (u *Uploader) objectKey(category Category, captured time.Time, name string) string {
	prefix := u.prefixCompressed
	if category == CategoryRaw {
		prefix = u.prefixRaw
	}
	return prefix + "/" + YearMonth(captured) + "/" + name
}

func (u *Uploader) transfer(ctx context.Context, f FileRecord, key string) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Path, err)
	}
	defer src.Close()

	if err := u.store.Put(ctx, key, src, f.Size, u.storageClass); err != nil {
		return fmt.Errorf("uploading %s: %w", filepath.Base(f.Path), err)
	}
	return nil
}
