package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"snapsync/internal/config"
	"snapsync/internal/exifdate"
	"snapsync/internal/fs"
	"snapsync/internal/history"
	"snapsync/internal/ledger"
	"snapsync/internal/snap"
	"snapsync/internal/store"
)

// App is the application layer between the CLI (or the HTTP server) and the
// pipeline Service. It constructs all dependencies from config and settings,
// and manages the history DB and log file lifecycle on Close.
type App struct {
	cfg      *config.Config
	settings *config.Settings
	logger   snap.Logger
	history  *history.SQLiteHistory
	logFile  io.Closer
}

// NewApp creates a fully wired App for a one-shot CLI command. verbose
// lowers the log threshold to debug. The caller must call Close when done.
func NewApp(cfg *config.Config, settings *config.Settings, verbose bool) (*App, error) {
	return newApp(cfg, settings, verbose, newLogger)
}

// NewServeApp creates an App for the long-running control service, with a
// rotating log file instead of a plain append.
func NewServeApp(cfg *config.Config, settings *config.Settings, verbose bool) (*App, error) {
	return newApp(cfg, settings, verbose, newServeLogger)
}

func newApp(cfg *config.Config, settings *config.Settings, verbose bool,
	mkLogger func(logDir, opID string, level slog.Level) (*slog.Logger, io.Closer, error)) (*App, error) {

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := mkLogger(settings.LogDir, opID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	if err := os.MkdirAll(settings.DataDir, 0755); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	hist, err := history.Open(filepath.Join(settings.DataDir, "history.db"))
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening run history: %w", err)
	}

	return &App{
		cfg:      cfg,
		settings: settings,
		logger:   &slogAdapter{l: logger},
		history:  hist,
		logFile:  logFile,
	}, nil
}

// Logger returns the application logger.
func (a *App) Logger() snap.Logger { return a.logger }

// Settings returns the loaded service settings.
func (a *App) Settings() *config.Settings { return a.settings }

// BuildService wires a pipeline Service from the given config. The HTTP
// server calls this per request with a freshly loaded config; the CLI calls
// it once via Service.
func (a *App) BuildService(ctx context.Context, cfg *config.Config) (*snap.Service, error) {
	classifier := snap.NewClassifier(cfg.RawExtensions, cfg.JPGExtensions)
	scanner := fs.NewOSMediaScanner(classifier)
	dater := exifdate.New()
	excluder := fs.NewExclusionMatcher(cfg.ExcludePatterns)
	led := ledger.New(snap.RealClock{})

	objStore, err := store.NewStoreFromConfig(ctx, a.settings, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating object store: %w", err)
	}

	importer := snap.NewImporter(scanner, dater, cfg.LocalImportBase, a.logger)
	uploader := snap.NewUploader(objStore, led, scanner, dater, classifier, excluder,
		cfg.S3PrefixRaw, cfg.S3PrefixJPG, cfg.S3StorageClass, a.logger)

	return snap.NewService(importer, uploader, a.history, a.logger, snap.RealClock{}), nil
}

// Service wires a Service from the App's own config.
func (a *App) Service(ctx context.Context) (*snap.Service, error) {
	return a.BuildService(ctx, a.cfg)
}

// CheckStore builds the configured object store and verifies it is
// reachable, e.g. that the S3 bucket exists and the credentials can see it.
func (a *App) CheckStore(ctx context.Context, cfg *config.Config) error {
	objStore, err := store.NewStoreFromConfig(ctx, a.settings, cfg)
	if err != nil {
		return err
	}
	return objStore.ValidateSetup(ctx)
}

// CheckIdentity builds the identity checker and resolves the effective AWS
// identity for the configured credentials.
func (a *App) CheckIdentity(ctx context.Context, cfg *config.Config) (string, error) {
	checker, err := store.NewIdentityCheckerFromConfig(ctx, cfg)
	if err != nil {
		return "", err
	}
	return checker.CheckIdentity(ctx)
}

// History returns the most recent recorded runs, newest first.
func (a *App) History(limit int) ([]*snap.Run, error) {
	return a.history.ListRuns(limit)
}

// Close closes the history database and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.history.Close(); err != nil {
		firstErr = fmt.Errorf("closing run history: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}
