package testutil

import (
	"path/filepath"
	"time"
)

// StubDater is a CaptureDater returning canned capture times by base name,
// falling back to the provided modification time for unknown files.
type StubDater struct {
	Dates map[string]time.Time // base name -> capture time
}

// NewStubDater creates an empty StubDater (pure mtime fallback).
func NewStubDater() *StubDater {
	return &StubDater{Dates: make(map[string]time.Time)}
}

// Set assigns a capture time for the given base name.
func (d *StubDater) Set(name string, t time.Time) {
	d.Dates[name] = t
}

func (d *StubDater) CaptureTime(path string, modTime time.Time) time.Time {
	if t, ok := d.Dates[filepath.Base(path)]; ok {
		return t
	}
	return modTime
}
