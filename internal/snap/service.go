package snap

import (
	"context"
	"time"
)

// Run is one finished import or upload invocation, recorded for the
// operator-facing history listing.
type Run struct {
	ID            int64
	Operation     string // "import" or "upload"
	Source        string
	StartDate     string
	EndDate       string
	DryRun        bool
	Status        string // "success" or "error"
	ImportedCount int
	FileCount     int
	UploadCount   int
	SkipCount     int
	TotalBytes    int64
	StartedAt     time.Time
	FinishedAt    time.Time
}

// RunRecorder persists finished runs. Implementations must tolerate being
// called from concurrent upload jobs.
type RunRecorder interface {
	RecordRun(run *Run) error
	ListRuns(limit int) ([]*Run, error)
	Close() error
}

// Service is the orchestration layer over the Importer and Uploader.
// It times each invocation, records it in the run history, and hands the
// results back unchanged. Whether the follow-on upload after an import runs
// synchronously (CLI) or as a tracked background job (HTTP API) is the
// caller's decision; the Service only exposes the two operations.
type Service struct {
	importer *Importer
	uploader *Uploader
	history  RunRecorder
	logger   Logger
	clock    Clock
}

// NewService creates a Service with the provided dependencies.
// history may be nil, in which case runs are not recorded.
func NewService(importer *Importer, uploader *Uploader, history RunRecorder, logger Logger, clock Clock) *Service {
	return &Service{
		importer: importer,
		uploader: uploader,
		history:  history,
		logger:   logger,
		clock:    clock,
	}
}

// Import runs an import and records it.
func (s *Service) Import(ctx context.Context, req ImportRequest, fn ProgressFunc) (*ImportResult, error) {
	run := &Run{
		Operation: "import",
		Source:    req.SourceVolume,
		StartDate: req.Date,
		EndDate:   req.Date,
		DryRun:    req.DryRun,
		StartedAt: s.clock.Now(),
	}

	result, err := s.importer.Import(ctx, req, fn)
	run.FinishedAt = s.clock.Now()
	if err != nil {
		run.Status = "error"
	} else {
		run.Status = "success"
		run.ImportedCount = result.ImportedCount
		run.SkipCount = result.SkippedCount
	}
	s.record(run)
	return result, err
}

// Upload runs an upload and records it.
func (s *Service) Upload(ctx context.Context, req UploadRequest, fn ProgressFunc) (*Summary, error) {
	run := &Run{
		Operation: "upload",
		Source:    req.SourceDir,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		DryRun:    req.DryRun,
		StartedAt: s.clock.Now(),
	}

	summary, err := s.uploader.Upload(ctx, req, fn)
	run.FinishedAt = s.clock.Now()
	if err != nil {
		run.Status = "error"
	} else {
		run.Status = "success"
	}
	if summary != nil {
		run.FileCount = summary.FileCount
		run.UploadCount = summary.UploadCount
		run.SkipCount = summary.SkipCount
		run.TotalBytes = summary.TotalBytes
	}
	s.record(run)
	return summary, err
}

// History returns the most recent recorded runs, newest first.
func (s *Service) History(limit int) ([]*Run, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListRuns(limit)
}

func (s *Service) record(run *Run) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordRun(run); err != nil {
		// History is advisory; a failed insert must not fail the run itself.
		s.logger.Warn("recording run history failed", "error", err)
	}
}
