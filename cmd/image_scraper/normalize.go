package main

import (
	"github.com/novamedix/catalog-images/internal/config"
	"github.com/novamedix/catalog-images/internal/observability"
	"github.com/novamedix/catalog-images/internal/pipeline"
	"github.com/spf13/cobra"
)

var normalizeCommand = &cobra.Command{
	Use:   "normalize <name>...",
	Short: "Print the search key computed for each product name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNormalizeCmd,
}

var (
	normalizeMode    string
	normalizeProfile string
)

func init() {
	normalizeCommand.Flags().StringVarP(&normalizeMode, "mode", "m", "terse", "Normalizer mode: terse or precision")
	normalizeCommand.Flags().StringVar(&normalizeProfile, "profile", "", "Path to a normalizer profile JSON file")

	rootCmd.AddCommand(normalizeCommand)
}

func runNormalizeCmd(cmd *cobra.Command, args []string) error {
	normalizer, err := pipeline.NewNormalizer(config.Config{Mode: normalizeMode, ProfilePath: normalizeProfile})
	if err != nil {
		return err
	}

	keys := make([]string, len(args))
	for i, name := range args {
		keys[i] = normalizer.Normalize(name)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintKeys(args, keys)
	return nil
}
