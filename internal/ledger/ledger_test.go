package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"snapsync/internal/testutil"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestStore_IsUploaded(t *testing.T) {
	t.Run("missing ledger means not uploaded", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "IMG_0001.JPG")
		writeFile(t, file, []byte("jpeg bytes"))

		store := New(testutil.FixedClock())
		uploaded, err := store.IsUploaded(dir, file)
		if err != nil {
			t.Fatalf("IsUploaded() error = %v", err)
		}
		if uploaded {
			t.Error("expected not uploaded with no ledger")
		}
	})

	t.Run("recorded file is uploaded", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "DCIM", "DSC0001.ARW")
		writeFile(t, file, []byte("raw bytes"))

		store := New(testutil.FixedClock())
		if err := store.RecordUploaded(dir, file); err != nil {
			t.Fatalf("RecordUploaded() error = %v", err)
		}

		uploaded, err := store.IsUploaded(dir, file)
		if err != nil {
			t.Fatalf("IsUploaded() error = %v", err)
		}
		if !uploaded {
			t.Error("expected uploaded after record")
		}
	})

	t.Run("content change invalidates the record", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "IMG_0002.JPG")
		writeFile(t, file, []byte("original"))

		store := New(testutil.FixedClock())
		if err := store.RecordUploaded(dir, file); err != nil {
			t.Fatalf("RecordUploaded() error = %v", err)
		}

		writeFile(t, file, []byte("edited"))
		uploaded, err := store.IsUploaded(dir, file)
		if err != nil {
			t.Fatalf("IsUploaded() error = %v", err)
		}
		if uploaded {
			t.Error("expected edited file to be treated as not uploaded")
		}
	})

	t.Run("same content restored under same relative path is detected", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "IMG_0003.JPG")
		writeFile(t, file, []byte("stable content"))

		store := New(testutil.FixedClock())
		if err := store.RecordUploaded(dir, file); err != nil {
			t.Fatalf("RecordUploaded() error = %v", err)
		}

		// Delete and restore bit-identical content.
		if err := os.Remove(file); err != nil {
			t.Fatalf("remove: %v", err)
		}
		writeFile(t, file, []byte("stable content"))

		uploaded, err := store.IsUploaded(dir, file)
		if err != nil {
			t.Fatalf("IsUploaded() error = %v", err)
		}
		if !uploaded {
			t.Error("expected restored identical content to count as uploaded")
		}
	})

	t.Run("different directories have independent ledgers", func(t *testing.T) {
		dirA := t.TempDir()
		dirB := t.TempDir()
		fileA := filepath.Join(dirA, "IMG.JPG")
		fileB := filepath.Join(dirB, "IMG.JPG")
		writeFile(t, fileA, []byte("same"))
		writeFile(t, fileB, []byte("same"))

		store := New(testutil.FixedClock())
		if err := store.RecordUploaded(dirA, fileA); err != nil {
			t.Fatalf("RecordUploaded() error = %v", err)
		}

		uploaded, err := store.IsUploaded(dirB, fileB)
		if err != nil {
			t.Fatalf("IsUploaded() error = %v", err)
		}
		if uploaded {
			t.Error("ledger entry leaked across directories")
		}
	})
}

func TestStore_LedgerFormat(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sub", "IMG_0001.JPG")
	writeFile(t, file, []byte("data"))

	store := New(testutil.FixedClock())
	if err := store.RecordUploaded(dir, file); err != nil {
		t.Fatalf("RecordUploaded() error = %v", err)
	}
	if err := store.RecordUploaded(dir, file); err != nil {
		t.Fatalf("RecordUploaded() second error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d ledger lines, want 2 (append-only)", len(lines))
	}

	wantHash := testutil.SHA256Hex([]byte("data"))
	for _, line := range lines {
		parts := strings.Split(line, "|")
		if len(parts) != 3 {
			t.Fatalf("line %q: got %d fields, want 3", line, len(parts))
		}
		if parts[0] != "2024-03-10T14:05:00Z" {
			t.Errorf("timestamp = %q, want fixed clock time in UTC ISO8601", parts[0])
		}
		if parts[1] != "sub/IMG_0001.JPG" {
			t.Errorf("relative path = %q, want slash-separated sub/IMG_0001.JPG", parts[1])
		}
		if parts[2] != wantHash {
			t.Errorf("hash = %q, want %q", parts[2], wantHash)
		}
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	dir := t.TempDir()
	store := New(testutil.FixedClock())

	const n = 20
	files := make([]string, n)
	for i := range files {
		files[i] = filepath.Join(dir, "IMG_"+strings.Repeat("0", 3)+string(rune('A'+i))+".JPG")
		writeFile(t, files[i], []byte{byte(i)})
	}

	done := make(chan error, n)
	for _, f := range files {
		go func(path string) {
			done <- store.RecordUploaded(dir, path)
		}(f)
	}
	for range files {
		if err := <-done; err != nil {
			t.Fatalf("RecordUploaded() error = %v", err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != n {
		t.Fatalf("got %d lines, want %d", len(lines), n)
	}
	for _, line := range lines {
		if strings.Count(line, "|") != 2 {
			t.Errorf("interleaved or partial line: %q", line)
		}
	}
}
