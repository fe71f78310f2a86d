package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"snapsync/internal/app"
	"snapsync/internal/config"
	"snapsync/internal/jobs"
	"snapsync/internal/server"
	"snapsync/internal/snap"
	"snapsync/internal/store"
	"snapsync/internal/volumes"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEnvironment reads the application defaults, the env config and the
// service settings.
func loadEnvironment() (*config.Manager, *config.Config, *config.Settings, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("getting defaults: %w", err)
	}

	manager := config.NewManager(defaults["config_path"])
	cfg, err := manager.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading config: %w", err)
	}

	settings, err := config.LoadSettings(defaults["settings_path"], defaults["base_dir"])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading settings: %w", err)
	}

	return manager, cfg, settings, nil
}

// newApp reads config and settings and creates a wired App.
// The caller must defer a.Close().
func newApp(cmd *cobra.Command) (*app.App, *config.Config, error) {
	_, cfg, settings, err := loadEnvironment()
	if err != nil {
		return nil, nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewApp(cfg, settings, verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, cfg, nil
}

// progressPrinter renders progress events as console lines.
func progressPrinter() snap.ProgressFunc {
	return func(ev snap.ProgressEvent) {
		switch ev.Kind {
		case snap.ProgressScanned:
			fmt.Printf("%d files to process\n", ev.Total)
		case snap.ProgressImported:
			fmt.Printf("imported: %s\n", ev.File)
		case snap.ProgressUploaded:
			fmt.Printf("uploaded: %s\n", ev.File)
		case snap.ProgressSkipped:
			fmt.Printf("skipped: %s (%s)\n", ev.File, ev.Reason)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "snapsync",
	Short: "Photo import and S3 archive tool",
}

// import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy a day's photos from a card into the import folder and upload them",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		date, _ := cmd.Flags().GetString("date")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.Service(cmd.Context())
		if err != nil {
			return err
		}

		result, err := svc.Import(cmd.Context(), snap.ImportRequest{
			SourceVolume: source,
			Date:         date,
			DryRun:       dryRun,
		}, progressPrinter())
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf("Imported %d file(s), skipped %d, into %s\n",
			result.ImportedCount, result.SkippedCount, result.DestDir)

		if !result.FollowUpUpload(dryRun) {
			return nil
		}

		summary, err := svc.Upload(cmd.Context(), snap.UploadRequest{
			SourceDir: result.DestDir,
			DryRun:    dryRun,
		}, progressPrinter())
		if err != nil {
			return fmt.Errorf("upload after import failed: %w", err)
		}
		fmt.Printf("Uploaded %d file(s), skipped %d, %d bytes\n",
			summary.UploadCount, summary.SkipCount, summary.TotalBytes)
		return nil
	},
}

// upload command
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload new media files from a folder to S3",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		startDate, _ := cmd.Flags().GetString("start-date")
		endDate, _ := cmd.Flags().GetString("end-date")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.Service(cmd.Context())
		if err != nil {
			return err
		}

		summary, err := svc.Upload(cmd.Context(), snap.UploadRequest{
			SourceDir: source,
			StartDate: startDate,
			EndDate:   endDate,
			DryRun:    dryRun,
		}, progressPrinter())
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		fmt.Printf("Uploaded %d of %d file(s), skipped %d, %d bytes\n",
			summary.UploadCount, summary.FileCount, summary.SkipCount, summary.TotalBytes)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the control HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, cfg, settings, err := loadEnvironment()
		if err != nil {
			return err
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		a, err := app.NewServeApp(cfg, settings, verbose)
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		retention := time.Duration(settings.RetentionMinutes) * time.Minute
		tracker, err := jobs.New(settings.ProgressDir, retention,
			snap.RealClock{}, snap.UUIDGenerator{}, a.Logger())
		if err != nil {
			return fmt.Errorf("creating job tracker: %w", err)
		}

		srv := server.New(a.Logger(), manager, tracker, a.BuildService,
			store.NewIdentityCheckerFromConfig)
		return srv.Run(settings.ListenAddr)
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify AWS credentials and that the configured store is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cfg, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		identity, err := a.CheckIdentity(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("credential check failed: %w", err)
		}
		fmt.Printf("AWS identity: %s\n", identity)

		if err := a.CheckStore(cmd.Context(), cfg); err != nil {
			return fmt.Errorf("store check failed: %w", err)
		}
		fmt.Println("Store accessible.")
		return nil
	},
}

// volumes command
var volumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "List candidate import sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, _, err := loadEnvironment()
		if err != nil {
			return err
		}

		vols := volumes.List(cfg.LocalImportBase)
		if len(vols) == 0 {
			fmt.Println("No volumes or import folders found.")
			return nil
		}
		for _, v := range vols {
			fmt.Printf("%-8s %s\n", v.Type, v.Path)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent import and upload runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond)
			counts := fmt.Sprintf("up:%d skip:%d", r.UploadCount, r.SkipCount)
			if r.Operation == "import" {
				counts = fmt.Sprintf("in:%d skip:%d", r.ImportedCount, r.SkipCount)
			}
			fmt.Printf("#%d  %-7s  %s  %-8s  %-16s  %s\n",
				r.ID,
				r.Operation,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				counts,
				duration,
			)
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		manager := config.NewManager(defaults["config_path"])
		if _, err := manager.Init(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", manager.Path())
		fmt.Println("Set S3_BUCKET and LOCAL_IMPORT_BASE before importing:")
		fmt.Println("  snapsync config set S3_BUCKET my-photo-archive")
		fmt.Println("  snapsync config set LOCAL_IMPORT_BASE ~/Pictures/import")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, cfg, _, err := loadEnvironment()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", manager.Path())
		values := cfg.Values()
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-18s %s\n", k, values[k])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		manager := config.NewManager(defaults["config_path"])
		if _, err := manager.Merge(map[string]string{args[0]: args[1]}); err != nil {
			return err
		}

		fmt.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	importCmd.Flags().String("source", "", "Source volume or folder (required)")
	importCmd.Flags().String("date", "", "Capture date to import, YYYY-MM-DD (required)")
	importCmd.Flags().Bool("dry-run", false, "Report what would happen without copying or uploading")
	importCmd.MarkFlagRequired("source")
	importCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(importCmd)

	uploadCmd.Flags().String("source", "", "Source folder (required)")
	uploadCmd.Flags().String("start-date", "", "Earliest capture date to include, YYYY-MM-DD")
	uploadCmd.Flags().String("end-date", "", "Latest capture date to include, YYYY-MM-DD")
	uploadCmd.Flags().Bool("dry-run", false, "Report what would happen without uploading")
	uploadCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(uploadCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(volumesCmd)

	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
