package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/novamedix/catalog-images/internal/config"
	"github.com/novamedix/catalog-images/internal/db"
	"github.com/novamedix/catalog-images/internal/observability"
	"github.com/novamedix/catalog-images/internal/pipeline"
	"github.com/novamedix/catalog-images/internal/search"
	"github.com/spf13/cobra"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run internal reuse and external image search over the catalog",
	Long: `Runs the full enrichment: optional reset -> internal reuse -> external search -> batch writes -> run log.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.
The catalog connection defaults to DIRECT_URL, then DATABASE_URL.`,
	Args: cobra.NoArgs,
	RunE: runScraperCmd,
}

var (
	runConfigPath  string
	runLimit       int
	runReset       bool
	runDryRun      bool
	runWorkers     int
	runBatchSize   int
	runMode        string
	runProfile     string
	runDatabaseURL string
	runLogPath     string
	runLogFormat   string
	runUseBrowser  bool
	runVerbose     bool
)

// newProvider builds the image search provider; tests replace it.
var newProvider = func(cfg config.Config, logger *slog.Logger) search.Provider {
	return pipeline.NewProvider(cfg, logger)
}

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().IntVar(&runLimit, "limit", 0, "Maximum number of products to search (0 = all)")
	runCommand.Flags().BoolVar(&runReset, "reset", false, "Clear every product image before the run")
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Search and log without writing to the catalog")
	runCommand.Flags().IntVarP(&runWorkers, "workers", "w", 0, "Concurrent searches (default 4)")
	runCommand.Flags().IntVar(&runBatchSize, "batch-size", 0, "Found images written per batch (default 50)")
	runCommand.Flags().StringVarP(&runMode, "mode", "m", "", "Normalizer mode: terse or precision (default terse)")
	runCommand.Flags().StringVar(&runProfile, "profile", "", "Path to a normalizer profile JSON file")
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "Catalog connection URL or SQLite path (defaults to DIRECT_URL, then DATABASE_URL)")
	runCommand.Flags().StringVar(&runLogPath, "log", "", "Run log path (default scraper_results.json)")
	runCommand.Flags().StringVar(&runLogFormat, "log-format", "", "Run log format: json or parquet (default from the log extension)")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Render the search page with a headless browser when needed (requires Chrome)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(runCommand)
}

// resolveRunConfig merges config file, flags, defaults and environment, then validates.
func resolveRunConfig(cmd *cobra.Command) (config.Config, error) {
	// Step 1: Start from defaults, or from the config file loaded over them
	cfg := config.Defaults()
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("limit") {
		cfg.Limit = runLimit
	}
	if flags.Changed("reset") {
		cfg.Reset = runReset
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = runDryRun
	}
	if flags.Changed("workers") {
		cfg.Workers = runWorkers
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = runBatchSize
	}
	if flags.Changed("mode") {
		cfg.Mode = runMode
	}
	if flags.Changed("profile") {
		cfg.ProfilePath = runProfile
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if flags.Changed("log") {
		cfg.LogPath = runLogPath
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = runLogFormat
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = runUseBrowser
	}
	if flags.Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	// Step 3: Apply defaults for unset values, then the environment
	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv(os.Getenv)

	// Step 4: Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runScraperCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := resolveRunConfig(cmd)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	printer := observability.NewPrinter(cmd.OutOrStdout())

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Debug("connected to catalog", "driver", db.DriverFor(cfg.DatabaseURL))

	result, runErr := pipeline.RunPipeline(ctx, pipeline.RunOptions{
		Config:   cfg,
		Store:    store,
		Provider: newProvider(cfg, logger),
		Logger:   logger,
		OnProgress: func(e pipeline.ProgressEvent) {
			switch e.Step {
			case pipeline.StepReuse, pipeline.StepSearch:
				if e.Result != nil {
					printer.PrintProgress(e.Done, e.Total, *e.Result)
				}
			default:
				if e.Message != "" {
					logger.Info(e.Message, "step", e.Step)
				}
			}
		},
	})
	if result != nil {
		printer.PrintSummary(result.Report)
	}
	return runErr
}
