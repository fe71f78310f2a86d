package fs

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"snapsync/internal/snap"
)

// OSMediaScanner discovers media files on the real filesystem.
// Only regular files whose extension is in the configured importable union
// are returned; everything else (directories, symlinks, sidecar files with
// unconfigured extensions) is silently passed over. Hidden directories such
// as .Trashes or .Spotlight-V100 on SD cards are not descended into.
type OSMediaScanner struct {
	classifier *snap.Classifier
}

// NewOSMediaScanner creates a scanner filtering by the classifier's
// importable extension union.
func NewOSMediaScanner(classifier *snap.Classifier) *OSMediaScanner {
	return &OSMediaScanner{classifier: classifier}
}

// Scan walks root recursively and returns the matching files.
func (s *OSMediaScanner) Scan(root string) ([]snap.FileRecord, error) {
	var records []snap.FileRecord

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !s.classifier.Importable(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		records = append(records, snap.FileRecord{
			Path:    p,
			Name:    d.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return records, nil
}

// Compile-time check that OSMediaScanner implements snap.MediaScanner
var _ snap.MediaScanner = (*OSMediaScanner)(nil)
