package volumes

import (
	"os"
	"path/filepath"
	"runtime"
)

// Volume is a candidate import source: a mounted removable volume or a
// folder below the local import base.
type Volume struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "volume" or "folder"
}

// mountRoots lists the directories where removable media shows up.
func mountRoots() []string {
	if runtime.GOOS == "darwin" {
		return []string{"/Volumes"}
	}
	roots := []string{"/mnt"}
	if user := os.Getenv("USER"); user != "" {
		roots = append(roots,
			filepath.Join("/media", user),
			filepath.Join("/run/media", user),
		)
	}
	return roots
}

// List enumerates mounted volumes plus the folders under importBase.
// This is a thin filesystem listing; unreadable roots are skipped silently
// so a machine without any card reader still gets its import folders.
func List(importBase string) []Volume {
	var vols []Volume

	for _, root := range mountRoots() {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			vols = append(vols, Volume{
				Name: e.Name(),
				Path: filepath.Join(root, e.Name()),
				Type: "volume",
			})
		}
	}

	if importBase != "" {
		vols = append(vols, ListFolders(importBase)...)
	}

	return vols
}

// ListFolders enumerates the date folders below the local import base.
func ListFolders(importBase string) []Volume {
	var vols []Volume
	entries, err := os.ReadDir(importBase)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		vols = append(vols, Volume{
			Name: e.Name(),
			Path: filepath.Join(importBase, e.Name()),
			Type: "folder",
		})
	}
	return vols
}
