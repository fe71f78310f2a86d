package exifdate

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"snapsync/internal/snap"
)

// ExtractCaptureTime reads EXIF metadata from the file and returns its
// DateTimeOriginal (falling back to the DateTime tag family via the exif
// package). The timestamp is reported as the camera wrote it, with no
// timezone normalization.
func ExtractCaptureTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding exif: %w", err)
	}

	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading capture time: %w", err)
	}
	return t, nil
}

// Dater is the CaptureDater backed by EXIF metadata. Files without readable
// EXIF data (videos, most RAW containers, stripped JPEGs) fall back to the
// filesystem modification time.
type Dater struct{}

// New creates an EXIF-backed Dater.
func New() *Dater { return &Dater{} }

func (Dater) CaptureTime(path string, modTime time.Time) time.Time {
	if t, err := ExtractCaptureTime(path); err == nil {
		return t
	}
	return modTime
}

// Compile-time check that Dater implements snap.CaptureDater
var _ snap.CaptureDater = (*Dater)(nil)
