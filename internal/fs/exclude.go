package fs

import (
	"strings"

	"snapsync/internal/snap"
)

// ExclusionMatcher checks filenames against configured exclusion patterns.
// A file is excluded when its name contains any pattern as a substring,
// case-insensitively. Blank patterns and lines starting with '#' are skipped.
type ExclusionMatcher struct {
	patterns []string
}

// NewExclusionMatcher creates an ExclusionMatcher from raw pattern strings.
func NewExclusionMatcher(rawPatterns []string) *ExclusionMatcher {
	var patterns []string
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		patterns = append(patterns, strings.ToLower(raw))
	}
	return &ExclusionMatcher{patterns: patterns}
}

// Excluded reports whether the given filename matches any exclusion pattern.
func (m *ExclusionMatcher) Excluded(filename string) bool {
	if len(m.patterns) == 0 {
		return false
	}
	name := strings.ToLower(filename)
	for _, p := range m.patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// Compile-time check that ExclusionMatcher implements snap.Excluder
var _ snap.Excluder = (*ExclusionMatcher)(nil)
