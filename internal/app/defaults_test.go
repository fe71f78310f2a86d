package app

import (
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("environment overrides win", func(t *testing.T) {
		t.Setenv("SNAPSYNC_CONFIG_PATH", "/etc/snapsync.env")
		t.Setenv("SNAPSYNC_HOME", "/var/lib/snapsync")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["config_path"] != "/etc/snapsync.env" {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != "/var/lib/snapsync" {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
		if defaults["log_dir"] != filepath.Join("/var/lib/snapsync", "log") {
			t.Errorf("log_dir = %q", defaults["log_dir"])
		}
		if defaults["settings_path"] != filepath.Join("/var/lib/snapsync", "settings.toml") {
			t.Errorf("settings_path = %q", defaults["settings_path"])
		}
	})

	t.Run("defaults live under the home directory", func(t *testing.T) {
		t.Setenv("SNAPSYNC_CONFIG_PATH", "")
		t.Setenv("SNAPSYNC_HOME", "")
		t.Setenv("HOME", "/home/tester")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		if defaults["config_path"] != "/home/tester/.config/snapsync.env" {
			t.Errorf("config_path = %q", defaults["config_path"])
		}
		if defaults["base_dir"] != "/home/tester/.local/share/snapsync" {
			t.Errorf("base_dir = %q", defaults["base_dir"])
		}
	})
}
