package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"snapsync/internal/jobs"
	"snapsync/internal/snap"
	"snapsync/internal/testutil"
)

func newTracker(t *testing.T, retention time.Duration) (*jobs.Tracker, string) {
	t.Helper()
	dir := t.TempDir()
	tracker, err := jobs.New(dir, retention, testutil.FixedClock(), testutil.NewStubIDGenerator(), snap.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tracker, dir
}

func TestTracker_Lifecycle(t *testing.T) {
	t.Run("successful job ends completed with exit code 0", func(t *testing.T) {
		tracker, dir := newTracker(t, time.Hour)

		started := make(chan struct{})
		id, err := tracker.Start(jobs.Params{SourcePath: "/photos/20241225"}, func(ctx context.Context, fn snap.ProgressFunc) error {
			<-started
			fn(snap.ProgressEvent{Kind: snap.ProgressScanned, Total: 3})
			fn(snap.ProgressEvent{Kind: snap.ProgressFile, File: "a.jpg"})
			fn(snap.ProgressEvent{Kind: snap.ProgressUploaded, File: "a.jpg"})
			fn(snap.ProgressEvent{Kind: snap.ProgressFile, File: "b.jpg"})
			fn(snap.ProgressEvent{Kind: snap.ProgressSkipped, File: "b.jpg", Reason: snap.SkipAlreadyUploaded})
			fn(snap.ProgressEvent{Kind: snap.ProgressFile, File: "c.arw"})
			fn(snap.ProgressEvent{Kind: snap.ProgressUploaded, File: "c.arw"})
			return nil
		})
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		// Start must return while the job is still running.
		rec, ok := tracker.Get(id)
		if !ok {
			t.Fatal("job not found immediately after Start")
		}
		if rec.Status != jobs.StatusRunning {
			t.Errorf("status = %s, want running", rec.Status)
		}
		close(started)

		tracker.Wait(id)
		rec, _ = tracker.Get(id)
		if rec.Status != jobs.StatusCompleted {
			t.Fatalf("status = %s, want completed", rec.Status)
		}
		if rec.ExitCode == nil || *rec.ExitCode != 0 {
			t.Errorf("exit code = %v, want 0", rec.ExitCode)
		}
		if rec.EndTime == nil {
			t.Error("end time not set")
		}
		if rec.Progress.Total != 3 || rec.Progress.Completed != 2 || rec.Progress.Skipped != 1 {
			t.Errorf("progress = %+v, want total 3, completed 2, skipped 1", rec.Progress)
		}
		if !strings.Contains(rec.Output, "uploaded: a.jpg") {
			t.Errorf("output missing upload line: %q", rec.Output)
		}

		// The persisted mirror reflects the terminal state.
		var onDisk jobs.Record
		data, err := os.ReadFile(filepath.Join(dir, id+".json"))
		if err != nil {
			t.Fatalf("reading job document: %v", err)
		}
		if err := json.Unmarshal(data, &onDisk); err != nil {
			t.Fatalf("decoding job document: %v", err)
		}
		if onDisk.Status != jobs.StatusCompleted {
			t.Errorf("persisted status = %s, want completed", onDisk.Status)
		}
	})

	t.Run("failing job ends failed with error text", func(t *testing.T) {
		tracker, _ := newTracker(t, time.Hour)

		id, err := tracker.Start(jobs.Params{SourcePath: "/photos"}, func(ctx context.Context, fn snap.ProgressFunc) error {
			return errors.New("uploading IMG_0001.JPG: connection reset")
		})
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		tracker.Wait(id)
		rec, _ := tracker.Get(id)
		if rec.Status != jobs.StatusFailed {
			t.Fatalf("status = %s, want failed", rec.Status)
		}
		if rec.ExitCode == nil || *rec.ExitCode == 0 {
			t.Errorf("exit code = %v, want non-zero", rec.ExitCode)
		}
		if !strings.Contains(rec.Error, "connection reset") {
			t.Errorf("error = %q, want transfer error text", rec.Error)
		}
	})

	t.Run("stopped job ends failed with stop note", func(t *testing.T) {
		tracker, _ := newTracker(t, time.Hour)

		running := make(chan struct{})
		id, err := tracker.Start(jobs.Params{SourcePath: "/photos"}, func(ctx context.Context, fn snap.ProgressFunc) error {
			close(running)
			<-ctx.Done()
			return ctx.Err()
		})
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		<-running
		if err := tracker.Stop(id); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}

		tracker.Wait(id)
		rec, _ := tracker.Get(id)
		if rec.Status != jobs.StatusFailed {
			t.Fatalf("status = %s, want failed", rec.Status)
		}
		if rec.Error != "stopped by request" {
			t.Errorf("error = %q, want stop note", rec.Error)
		}

		// Terminal jobs cannot be stopped again.
		if err := tracker.Stop(id); err == nil {
			t.Error("expected error stopping a finished job")
		}
	})

	t.Run("list returns newest first", func(t *testing.T) {
		tracker, _ := newTracker(t, time.Hour)

		block := make(chan struct{})
		var ids []string
		for i := 0; i < 3; i++ {
			id, err := tracker.Start(jobs.Params{SourcePath: "/p"}, func(ctx context.Context, fn snap.ProgressFunc) error {
				<-block
				return nil
			})
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			ids = append(ids, id)
		}

		if got := len(tracker.List()); got != 3 {
			t.Fatalf("List() returned %d records, want 3", got)
		}

		close(block)
		for _, id := range ids {
			tracker.Wait(id)
		}
	})
}

func TestTracker_Reconcile(t *testing.T) {
	t.Run("running becomes interrupted, nothing else changes", func(t *testing.T) {
		dir := t.TempDir()

		rec := jobs.Record{
			ID:         "job-1",
			Status:     jobs.StatusRunning,
			SourcePath: "/photos/20241225",
			StartTime:  time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC),
			Output:     "12 files to process\nuploaded: a.jpg\n",
			Progress:   jobs.Progress{Total: 12, Completed: 1, Skipped: 0},
		}
		data, _ := json.Marshal(rec)
		if err := os.WriteFile(filepath.Join(dir, "job-1.json"), data, 0644); err != nil {
			t.Fatalf("seeding job document: %v", err)
		}

		tracker, err := jobs.New(dir, time.Hour, testutil.FixedClock(), testutil.NewStubIDGenerator(), snap.NewNopLogger())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := tracker.Reconcile(); err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}

		got, ok := tracker.Get("job-1")
		if !ok {
			t.Fatal("reconciled job not found")
		}
		if got.Status != jobs.StatusInterrupted {
			t.Errorf("status = %s, want interrupted", got.Status)
		}
		if got.Progress != rec.Progress {
			t.Errorf("progress changed during reconcile: %+v", got.Progress)
		}
		if got.Output != rec.Output {
			t.Errorf("output changed during reconcile: %q", got.Output)
		}

		// The rewrite reaches the persisted mirror too.
		var onDisk jobs.Record
		raw, _ := os.ReadFile(filepath.Join(dir, "job-1.json"))
		if err := json.Unmarshal(raw, &onDisk); err != nil {
			t.Fatalf("decoding rewritten document: %v", err)
		}
		if onDisk.Status != jobs.StatusInterrupted {
			t.Errorf("persisted status = %s, want interrupted", onDisk.Status)
		}
	})

	t.Run("terminal records load unchanged", func(t *testing.T) {
		dir := t.TempDir()
		end := time.Date(2024, 12, 25, 11, 0, 0, 0, time.UTC)
		code := 0
		rec := jobs.Record{
			ID:        "job-2",
			Status:    jobs.StatusCompleted,
			StartTime: end.Add(-time.Minute),
			EndTime:   &end,
			ExitCode:  &code,
		}
		data, _ := json.Marshal(rec)
		os.WriteFile(filepath.Join(dir, "job-2.json"), data, 0644)

		tracker, _ := jobs.New(dir, time.Hour, testutil.FixedClock(), testutil.NewStubIDGenerator(), snap.NewNopLogger())
		if err := tracker.Reconcile(); err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}

		got, ok := tracker.Get("job-2")
		if !ok {
			t.Fatal("terminal job not loaded")
		}
		if got.Status != jobs.StatusCompleted {
			t.Errorf("status = %s, want completed", got.Status)
		}
	})
}

func TestTracker_RetentionGC(t *testing.T) {
	tracker, dir := newTracker(t, 30*time.Millisecond)

	id, err := tracker.Start(jobs.Params{SourcePath: "/p"}, func(ctx context.Context, fn snap.ProgressFunc) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	tracker.Wait(id)

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, inMemory := tracker.Get(id)
		_, statErr := os.Stat(filepath.Join(dir, id+".json"))
		if !inMemory && os.IsNotExist(statErr) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s not garbage collected: inMemory=%v statErr=%v", id, inMemory, statErr)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTracker_RetentionCountsFromEndTime(t *testing.T) {
	// A terminal record whose retention window already elapsed before the
	// restart must not get a fresh window from Reconcile.
	dir := t.TempDir()
	clock := testutil.FixedClock()

	end := clock.Now().Add(-2 * time.Hour)
	code := 0
	rec := jobs.Record{
		ID:        "job-old",
		Status:    jobs.StatusCompleted,
		StartTime: end.Add(-time.Minute),
		EndTime:   &end,
		ExitCode:  &code,
	}
	data, _ := json.Marshal(rec)
	if err := os.WriteFile(filepath.Join(dir, "job-old.json"), data, 0644); err != nil {
		t.Fatalf("seeding job document: %v", err)
	}

	tracker, err := jobs.New(dir, time.Hour, clock, testutil.NewStubIDGenerator(), snap.NewNopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := tracker.Reconcile(); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, inMemory := tracker.Get("job-old")
		_, statErr := os.Stat(filepath.Join(dir, "job-old.json"))
		if !inMemory && os.IsNotExist(statErr) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expired job survived reconcile: inMemory=%v statErr=%v", inMemory, statErr)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
