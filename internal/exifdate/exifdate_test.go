package exifdate

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDater_CaptureTime(t *testing.T) {
	t.Run("falls back to mtime when file has no exif", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "clip.mp4")
		if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}

		mod := time.Date(2024, 12, 25, 9, 0, 0, 0, time.Local)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("chtimes: %v", err)
		}

		got := New().CaptureTime(path, mod)
		if !got.Equal(mod) {
			t.Errorf("CaptureTime() = %v, want mtime %v", got, mod)
		}
	})

	t.Run("falls back to mtime for missing file", func(t *testing.T) {
		mod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		got := New().CaptureTime(filepath.Join(t.TempDir(), "gone.jpg"), mod)
		if !got.Equal(mod) {
			t.Errorf("CaptureTime() = %v, want mtime %v", got, mod)
		}
	})
}

func TestExtractCaptureTime_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := ExtractCaptureTime(filepath.Join(t.TempDir(), "gone.jpg")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("non-image file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "notes.jpg")
		if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := ExtractCaptureTime(path); err == nil {
			t.Fatal("expected error for non-image bytes")
		}
	})
}
