package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - SNAPSYNC_CONFIG_PATH: config file location (default: ~/.config/snapsync.env)
//   - SNAPSYNC_HOME: base directory for snapsync data (default: ~/.local/share/snapsync)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path":   configPath,
		"base_dir":      baseDir,
		"settings_path": filepath.Join(baseDir, "settings.toml"),
		"log_dir":       filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking SNAPSYNC_CONFIG_PATH
// first, then falling back to the default ~/.config/snapsync.env.
func getConfigPath() (string, error) {
	if path := os.Getenv("SNAPSYNC_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "snapsync.env"), nil
}

// getBaseDir returns the base directory for snapsync data, checking
// SNAPSYNC_HOME first, then falling back to the XDG default
// ~/.local/share/snapsync.
func getBaseDir() (string, error) {
	if path := os.Getenv("SNAPSYNC_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "snapsync"), nil
}
