package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/novamedix/catalog-images/internal/types"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func setupSQLite(t *testing.T, items ...types.CatalogItem) *SQLite {
	t.Helper()
	ctx := context.Background()

	store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.EnsureSchema(ctx))
	for _, item := range items {
		require.NoError(t, store.InsertItem(ctx, item))
	}
	return store
}

func sampleCatalog() []types.CatalogItem {
	return []types.CatalogItem{
		{ID: "p1", Clave: "1001", Name: "TEMPRA TAB 500MG C/20", Image: strPtr("https://cdn.example.com/tempra.jpg"), Active: true},
		{ID: "p2", Clave: "1002", Name: "TEMPRA TAB 500MG C/20", Active: true},
		{ID: "p3", Clave: "1003", Name: "ASPIRINA 500MG", Code: strPtr("7501008491577"), Active: true},
		{ID: "p4", Clave: "1004", Name: "BUSCAPINA 10MG", Active: false},
		{ID: "p5", Clave: "1005", Name: "ALKA SELTZER", Active: true},
	}
}
