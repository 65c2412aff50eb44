// Package main provides the entry point for the catalog image scraper CLI.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "image_scraper",
	Short: "Fill missing product images in the pharmacy catalog",
	Long: `image_scraper assigns an image URL to every active catalog product that lacks one.

Products first reuse an image already stored for another product with the identical name.
The rest are searched on DuckDuckGo Images using a normalized search key, and found
images are written back in batches.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
