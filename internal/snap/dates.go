package snap

import "time"

// DateFormat is the wire format for all date parameters and comparisons.
const DateFormat = "2006-01-02"

// CaptureDater resolves a media file's capture timestamp.
// Implementations prefer embedded metadata (EXIF DateTimeOriginal) and fall
// back to the provided filesystem modification time when none is available.
type CaptureDater interface {
	CaptureTime(path string, modTime time.Time) time.Time
}

// DayOf truncates a timestamp to its calendar day in local time.
// No timezone normalization is applied beyond what the source reported;
// this mirrors the behavior of the original shell tooling.
func DayOf(t time.Time) string {
	return t.Format(DateFormat)
}

// YearMonth returns the destination bucketing key segment for a timestamp.
func YearMonth(t time.Time) string {
	return t.Format("2006-01")
}

// InRange reports whether date falls within [start, end]. An empty bound is
// unconstrained on that side. Comparison is lexicographic, which is valid
// because DateFormat is fixed-width and zero-padded.
func InRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}
