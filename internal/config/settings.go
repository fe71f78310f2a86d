package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Settings holds service-internal configuration: where the control service
// listens, where it keeps its own state, and how long finished job records
// are retained. Unlike Config, this file is not shared with any external
// tooling, so it uses TOML.
type Settings struct {
	ListenAddr       string `toml:"listen_addr"`
	DataDir          string `toml:"data_dir"`
	ProgressDir      string `toml:"progress_dir"`
	LogDir           string `toml:"log_dir"`
	RetentionMinutes int    `toml:"retention_minutes"`

	// Store selects the upload backend: "s3" (default), "filesystem" for
	// offline use, or "memory" for tests.
	Store     string `toml:"store"`
	StoreRoot string `toml:"store_root,omitempty"` // only used for store="filesystem"
}

// DefaultSettings returns Settings rooted at the given base directory.
func DefaultSettings(baseDir string) *Settings {
	return &Settings{
		ListenAddr:       "127.0.0.1:8787",
		DataDir:          filepath.Join(baseDir, "data"),
		ProgressDir:      filepath.Join(baseDir, "progress"),
		LogDir:           filepath.Join(baseDir, "log"),
		RetentionMinutes: 60,
		Store:            "s3",
	}
}

// LoadSettings reads Settings from path, falling back to defaults for a
// missing file. Fields absent from the file keep their default values.
func LoadSettings(path, baseDir string) (*Settings, error) {
	s := DefaultSettings(baseDir)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("opening settings file: %w", err)
	}
	defer f.Close()

	if _, err := toml.NewDecoder(f).Decode(s); err != nil {
		return nil, fmt.Errorf("decoding settings from %s: %w", path, err)
	}
	return s, nil
}
