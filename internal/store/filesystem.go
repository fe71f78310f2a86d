package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"snapsync/internal/snap"
)

// FileSystemStore is a filesystem-backed implementation of the ObjectStore
// interface. Object keys map directly to paths below the root, so the
// bucket layout on disk mirrors the S3 key space. Storage class is accepted
// and ignored.
type FileSystemStore struct {
	name string
	root string
}

// NewFileSystemStore creates a filesystem store rooted at the given path.
func NewFileSystemStore(name, root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &FileSystemStore{name: name, root: root}, nil
}

// Put writes the object to <root>/<key> using atomic write (temp file + rename).
func (s *FileSystemStore) Put(_ context.Context, key string, r io.Reader, size int64, _ string) error {
	destPath := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// ValidateSetup verifies that the store root exists and is a directory.
func (s *FileSystemStore) ValidateSetup(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("store root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store root is not a directory: %s", s.root)
	}
	return nil
}

// Compile-time check that FileSystemStore implements snap.ObjectStore
var _ snap.ObjectStore = (*FileSystemStore)(nil)
