package fs

import (
	"os"
	"path/filepath"
	"testing"

	"snapsync/internal/snap"
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

func TestOSMediaScanner_Scan(t *testing.T) {
	classifier := snap.NewClassifier([]string{"arw", "dng"}, []string{"jpg", "jpeg"})

	t.Run("returns only importable files, recursively", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "IMG_0001.JPG"), []byte("a"))
		writeFile(t, filepath.Join(root, "DCIM", "100MSDCF", "DSC0001.ARW"), []byte("bb"))
		writeFile(t, filepath.Join(root, "notes.txt"), []byte("c"))
		writeFile(t, filepath.Join(root, "index.db"), []byte("d"))

		records, err := (NewOSMediaScanner(classifier)).Scan(root)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		if len(records) != 2 {
			t.Fatalf("got %d records, want 2", len(records))
		}
		names := map[string]bool{}
		for _, r := range records {
			names[r.Name] = true
			if r.Size == 0 {
				t.Errorf("record %s has zero size", r.Name)
			}
			if !filepath.IsAbs(r.Path) && !filepath.IsAbs(root) {
				// Paths mirror the root form; with a TempDir root they are absolute.
				t.Errorf("record %s has unexpected path %s", r.Name, r.Path)
			}
		}
		if !names["IMG_0001.JPG"] || !names["DSC0001.ARW"] {
			t.Errorf("unexpected record names: %v", names)
		}
	})

	t.Run("skips hidden directories", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ".Trashes", "deleted.jpg"), []byte("x"))
		writeFile(t, filepath.Join(root, "keep.jpg"), []byte("y"))

		records, err := (NewOSMediaScanner(classifier)).Scan(root)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(records) != 1 || records[0].Name != "keep.jpg" {
			t.Fatalf("got %v, want only keep.jpg", records)
		}
	})

	t.Run("missing root is an error", func(t *testing.T) {
		_, err := (NewOSMediaScanner(classifier)).Scan(filepath.Join(t.TempDir(), "nope"))
		if err == nil {
			t.Fatal("expected error for missing root")
		}
	})
}
