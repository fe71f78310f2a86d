package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logDir := t.TempDir()

	logger, closer, err := newLogger(logDir, "20240310T140500Z", slog.LevelInfo)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}

	logger.Info("upload complete", "files", 3, "bytes", 1024)
	if err := closer.Close(); err != nil {
		t.Fatalf("closing log file: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(logDir, "snapsync.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	line := strings.TrimRight(string(data), "\n")

	fields := strings.Split(line, "\t")
	if len(fields) != 6 {
		t.Fatalf("got %d tab fields, want 6: %q", len(fields), line)
	}
	if fields[1] != "INFO" || fields[2] != "20240310T140500Z" || fields[3] != "upload complete" {
		t.Errorf("unexpected fields: %q", line)
	}
	if fields[4] != "files=3" || fields[5] != "bytes=1024" {
		t.Errorf("unexpected attrs: %q", line)
	}
}

func TestTabHandlerWithAttrs(t *testing.T) {
	logDir := t.TempDir()

	logger, closer, err := newLogger(logDir, "op", slog.LevelInfo)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer closer.Close()

	logger.With("job", "id-1").Info("started")

	data, err := os.ReadFile(filepath.Join(logDir, "snapsync.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "started\tjob=id-1") {
		t.Errorf("pre-set attr missing: %q", data)
	}
}

func TestLoggerLevelThreshold(t *testing.T) {
	t.Run("debug dropped at info level", func(t *testing.T) {
		logDir := t.TempDir()
		logger, closer, err := newLogger(logDir, "op", slog.LevelInfo)
		if err != nil {
			t.Fatalf("newLogger() error = %v", err)
		}

		logger.Debug("skipped", "file", "a.jpg")
		logger.Info("uploaded", "file", "a.jpg")
		closer.Close()

		data, err := os.ReadFile(filepath.Join(logDir, "snapsync.log"))
		if err != nil {
			t.Fatalf("reading log file: %v", err)
		}
		if strings.Contains(string(data), "skipped") {
			t.Errorf("debug line written at info level: %q", data)
		}
		if !strings.Contains(string(data), "uploaded") {
			t.Errorf("info line missing: %q", data)
		}
	})

	t.Run("debug kept at debug level", func(t *testing.T) {
		logDir := t.TempDir()
		logger, closer, err := newLogger(logDir, "op", slog.LevelDebug)
		if err != nil {
			t.Fatalf("newLogger() error = %v", err)
		}

		logger.Debug("skipped", "file", "a.jpg")
		closer.Close()

		data, err := os.ReadFile(filepath.Join(logDir, "snapsync.log"))
		if err != nil {
			t.Fatalf("reading log file: %v", err)
		}
		if !strings.Contains(string(data), "DEBUG\top\tskipped") {
			t.Errorf("debug line missing at debug level: %q", data)
		}
	})
}
