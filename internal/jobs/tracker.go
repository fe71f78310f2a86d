package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"snapsync/internal/snap"
)

// Params are the caller-supplied parameters of an upload job.
type Params struct {
	SourcePath string
	StartDate  string
	EndDate    string
	DryRun     bool
}

// RunFunc executes the job's work, reporting structured progress through fn.
// It must return promptly once ctx is cancelled.
type RunFunc func(ctx context.Context, fn snap.ProgressFunc) error

// Tracker owns all job records and their persisted mirror. Each record is
// mirrored to <dir>/<id>.json after every update; the files are the crash
// recovery path, never the read path for live jobs. Finished records are
// garbage collected from memory and disk after the retention window.
type Tracker struct {
	dir       string
	retention time.Duration
	clock     snap.Clock
	idgen     snap.IDGenerator
	logger    snap.Logger

	mu      sync.RWMutex
	jobs    map[string]*Record
	cancels map[string]context.CancelFunc
	dones   map[string]chan struct{}
}

// New creates a Tracker persisting job documents under dir.
func New(dir string, retention time.Duration, clock snap.Clock, idgen snap.IDGenerator, logger snap.Logger) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating progress directory: %w", err)
	}
	return &Tracker{
		dir:       dir,
		retention: retention,
		clock:     clock,
		idgen:     idgen,
		logger:    logger,
		jobs:      make(map[string]*Record),
		cancels:   make(map[string]context.CancelFunc),
		dones:     make(map[string]chan struct{}),
	}, nil
}

// Reconcile loads all persisted job documents into memory, rewriting any
// record still marked running to interrupted: its owning process is gone.
// Must run exactly once, before the API starts accepting upload requests,
// so a freshly started job cannot be misclassified.
func (t *Tracker) Reconcile() error {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return fmt.Errorf("reading progress directory: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(t.dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading job document %s: %w", entry.Name(), err)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			t.logger.Warn("skipping unreadable job document", "file", entry.Name(), "error", err)
			continue
		}

		if rec.Status == StatusRunning {
			rec.Status = StatusInterrupted
			if err := t.persistLocked(&rec); err != nil {
				return fmt.Errorf("persisting interrupted job %s: %w", rec.ID, err)
			}
			t.logger.Info("recovered interrupted job", "id", rec.ID)
		}

		t.jobs[rec.ID] = &rec
		t.scheduleGC(rec.ID)
	}
	return nil
}

// Start allocates a job id, persists an initial running record and launches
// run in the background. It returns immediately with the new id.
func (t *Tracker) Start(params Params, run RunFunc) (string, error) {
	id := t.idgen.New()
	rec := &Record{
		ID:         id,
		Status:     StatusRunning,
		SourcePath: params.SourcePath,
		StartDate:  params.StartDate,
		EndDate:    params.EndDate,
		DryRun:     params.DryRun,
		StartTime:  t.clock.Now(),
	}

	ctx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	if err := t.persistLocked(rec); err != nil {
		t.mu.Unlock()
		cancel()
		return "", fmt.Errorf("persisting job record: %w", err)
	}
	t.jobs[id] = rec
	t.cancels[id] = cancel
	t.dones[id] = make(chan struct{})
	t.mu.Unlock()

	t.logger.Info("job started", "id", id, "source", params.SourcePath, "dry_run", params.DryRun)

	go func() {
		err := run(ctx, func(ev snap.ProgressEvent) { t.applyEvent(id, ev) })
		t.finalize(id, err)
	}()

	return id, nil
}

// Stop cancels a running job. The job finalizes as failed with a
// distinguishing error note; there is no separate cancelled state in the
// persisted format.
func (t *Tracker) Stop(id string) error {
	t.mu.RLock()
	cancel, ok := t.cancels[id]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %s is not running", id)
	}
	cancel()
	return nil
}

// Get returns a copy of the job record.
func (t *Tracker) Get(id string) (*Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.jobs[id]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// List returns copies of all tracked records, newest first.
func (t *Tracker) List() []*Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	records := make([]*Record, 0, len(t.jobs))
	for _, rec := range t.jobs {
		records = append(records, rec.clone())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartTime.After(records[j].StartTime)
	})
	return records
}

// Wait blocks until the job reaches a terminal state. Used by tests and by
// graceful shutdown; returns immediately for unknown or finished jobs.
func (t *Tracker) Wait(id string) {
	t.mu.RLock()
	done, ok := t.dones[id]
	t.mu.RUnlock()
	if !ok {
		return
	}
	<-done
}

// applyEvent folds one progress event into the job record and persists it.
// Events arrive from the single goroutine driving the job, so updates for
// one job are applied in emission order.
func (t *Tracker) applyEvent(id string, ev snap.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.jobs[id]
	if !ok || rec.Status.Terminal() {
		return
	}

	switch ev.Kind {
	case snap.ProgressScanned:
		rec.Progress.Total = ev.Total
		t.appendOutput(rec, fmt.Sprintf("%d files to process", ev.Total))
	case snap.ProgressFile:
		rec.CurrentFile = ev.File
	case snap.ProgressUploaded:
		rec.Progress.Completed++
		t.appendOutput(rec, "uploaded: "+ev.File)
	case snap.ProgressImported:
		rec.Progress.Completed++
		t.appendOutput(rec, "imported: "+ev.File)
	case snap.ProgressSkipped:
		rec.Progress.Skipped++
		t.appendOutput(rec, fmt.Sprintf("skipped: %s (%s)", ev.File, ev.Reason))
	}

	if err := t.persistLocked(rec); err != nil {
		t.logger.Warn("persisting job progress failed", "id", id, "error", err)
	}
}

// finalize moves the job to its terminal state and schedules deletion.
func (t *Tracker) finalize(id string, runErr error) {
	t.mu.Lock()

	rec, ok := t.jobs[id]
	if !ok {
		t.mu.Unlock()
		return
	}

	now := t.clock.Now()
	rec.EndTime = &now
	exitCode := 0
	if runErr != nil {
		exitCode = 1
		rec.Status = StatusFailed
		if errors.Is(runErr, context.Canceled) {
			rec.Error = "stopped by request"
		} else {
			rec.Error = runErr.Error()
		}
	} else {
		rec.Status = StatusCompleted
	}
	rec.ExitCode = &exitCode
	rec.CurrentFile = ""

	if err := t.persistLocked(rec); err != nil {
		t.logger.Warn("persisting final job state failed", "id", id, "error", err)
	}

	status := rec.Status
	delete(t.cancels, id)
	done := t.dones[id]
	delete(t.dones, id)
	t.scheduleGC(id)
	t.mu.Unlock()

	if done != nil {
		close(done)
	}
	t.logger.Info("job finished", "id", id, "status", status, "exit_code", exitCode)
}

// scheduleGC arranges for the record and its document to be dropped once
// the retention window after the job's end has passed. Records reloaded by
// Reconcile keep their original deadline: the window counts from EndTime,
// not from when the timer was armed. Caller holds the lock.
func (t *Tracker) scheduleGC(id string) {
	delay := t.retention
	if rec, ok := t.jobs[id]; ok && rec.EndTime != nil {
		if remaining := t.retention - t.clock.Now().Sub(*rec.EndTime); remaining < delay {
			delay = remaining
		}
		if delay < 0 {
			delay = 0
		}
	}
	time.AfterFunc(delay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		rec, ok := t.jobs[id]
		if !ok || !rec.Status.Terminal() {
			return
		}
		delete(t.jobs, id)
		if err := os.Remove(t.documentPath(id)); err != nil && !os.IsNotExist(err) {
			t.logger.Warn("removing job document failed", "id", id, "error", err)
		}
	})
}

func (t *Tracker) appendOutput(rec *Record, line string) {
	rec.Output += line + "\n"
}

func (t *Tracker) documentPath(id string) string {
	return filepath.Join(t.dir, id+".json")
}

// persistLocked writes the record's JSON document using a temp file and
// rename, so a crash mid-write never leaves a truncated document.
func (t *Tracker) persistLocked(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding job record: %w", err)
	}

	tmp, err := os.CreateTemp(t.dir, ".job-*")
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

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing job document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, t.documentPath(rec.ID)); err != nil {
		return fmt.Errorf("renaming job document: %w", err)
	}

	success = true
	return nil
}
