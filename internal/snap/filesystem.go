package snap

import "time"

// FileRecord describes one media file discovered during a scan.
// Records are ephemeral: recomputed on every walk, never persisted.
type FileRecord struct {
	Path    string // absolute path
	Name    string // base name
	Size    int64
	ModTime time.Time
}

// MediaScanner discovers media files under a directory.
// Only files whose extension is in the configured importable union are
// returned. Order is the natural recursive walk order; callers must not
// rely on it beyond that.
type MediaScanner interface {
	Scan(root string) ([]FileRecord, error)
}

// Excluder decides whether a filename is excluded from upload by the
// configured exclusion patterns.
type Excluder interface {
	Excluded(filename string) bool
}
