package main

import (
	"fmt"
	"strings"

	"github.com/novamedix/catalog-images/internal/config"
	"github.com/novamedix/catalog-images/internal/observability"
	"github.com/novamedix/catalog-images/internal/pipeline"
	"github.com/novamedix/catalog-images/internal/search"
	"github.com/spf13/cobra"
)

var searchCommand = &cobra.Command{
	Use:   "search <key>",
	Short: "Search one key on the image provider and show the candidates",
	Long: `Runs the external search for a single search key, without touching the catalog.

The key is searched as-is plus the configured query suffix. Use 'normalize' first to see
the key a product name produces.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchCmd,
}

var (
	searchUseBrowser bool
	searchVerbose    bool
	searchSuffix     string
)

func init() {
	searchCommand.Flags().BoolVar(&searchUseBrowser, "use-browser", false, "Render the search page with a headless browser when needed (requires Chrome)")
	searchCommand.Flags().BoolVarP(&searchVerbose, "verbose", "v", false, "Print detailed debug information")
	searchCommand.Flags().StringVar(&searchSuffix, "suffix", "", "Query suffix (default \"medicamento farmacia mexico\")")

	rootCmd.AddCommand(searchCommand)
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	key := strings.Join(args, " ")

	cfg := config.Defaults()
	cfg.UseBrowser = searchUseBrowser
	cfg.Verbose = searchVerbose
	if searchSuffix != "" {
		cfg.QuerySuffix = searchSuffix
	}
	cfg.RateLimit = 0

	logger := observability.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	client := search.NewClient(newProvider(cfg, logger), pipeline.SearchConfig(cfg), logger)

	out := client.FindImage(cmd.Context(), key)
	observability.NewPrinter(cmd.OutOrStdout()).PrintCandidates(client.Query(key), out.URL, string(out.Reason), out.Candidates)

	if out.Status == search.StatusExhausted {
		return fmt.Errorf("search failed after %d attempts: %w", out.Attempts, out.Err)
	}
	return nil
}
