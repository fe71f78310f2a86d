package snap

import (
	"path/filepath"
	"strings"
)

// Category is the logical media category of a file, derived from its extension.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryRaw
	CategoryCompressed
)

func (c Category) String() string {
	switch c {
	case CategoryRaw:
		return "raw"
	case CategoryCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// Classifier maps filenames to media categories using two disjoint,
// case-insensitive extension sets. Files in neither set are CategoryUnknown:
// excluded from upload, but still accepted by import when part of the
// configured importable union.
type Classifier struct {
	raw        map[string]bool
	compressed map[string]bool
}

// NewClassifier creates a Classifier from raw and compressed extension lists.
// Extensions may be given with or without a leading dot, in any case.
func NewClassifier(rawExts, compressedExts []string) *Classifier {
	return &Classifier{
		raw:        extensionSet(rawExts),
		compressed: extensionSet(compressedExts),
	}
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

// Classify returns the category for the given filename.
func (c *Classifier) Classify(filename string) Category {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case c.raw[ext]:
		return CategoryRaw
	case c.compressed[ext]:
		return CategoryCompressed
	default:
		return CategoryUnknown
	}
}

// Importable reports whether the filename's extension is in the raw or
// compressed set. Import accepts the full union regardless of category.
func (c *Classifier) Importable(filename string) bool {
	return c.Classify(filename) != CategoryUnknown
}
