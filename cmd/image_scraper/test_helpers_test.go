package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/novamedix/catalog-images/internal/config"
	"github.com/novamedix/catalog-images/internal/db"
	"github.com/novamedix/catalog-images/internal/search"
	"github.com/novamedix/catalog-images/internal/types"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command in-process with fresh flag state.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// useProvider swaps the search provider for the duration of the test.
func useProvider(t *testing.T, p search.Provider) {
	t.Helper()
	orig := newProvider
	newProvider = func(config.Config, *slog.Logger) search.Provider { return p }
	t.Cleanup(func() { newProvider = orig })
}

// clearDatabaseEnv keeps a developer's .env from leaking into the tests.
func clearDatabaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvDirectURL, "")
	t.Setenv(config.EnvDatabaseURL, "")
}

func seedCatalog(t *testing.T, items ...types.CatalogItem) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := db.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))
	for _, item := range items {
		require.NoError(t, store.InsertItem(ctx, item))
	}
	return path
}

// fastConfig writes a config file that removes pacing delays.
func fastConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"delay_ms": 0, "rate_limit": 0, "retry_backoff_ms": 0}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func imageOf(t *testing.T, dbPath, id string) *string {
	t.Helper()
	ctx := context.Background()
	store, err := db.OpenSQLite(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()
	item, err := store.GetItem(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.Image
}

func strPtr(s string) *string { return &s }
