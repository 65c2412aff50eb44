package db

import (
	"context"
	"testing"

	"github.com/novamedix/catalog-images/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemIDs(items []types.CatalogItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestSQLite_ListItemsNeedingImages(t *testing.T) {
	store := setupSQLite(t, sampleCatalog()...)
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		includeAll bool
		want       []string
	}{
		{"missing only, ordered by name", 0, false, []string{"p5", "p3", "p2"}},
		{"limit applies after ordering", 2, false, []string{"p5", "p3"}},
		{"all active", 0, true, []string{"p5", "p3", "p1", "p2"}},
		{"negative limit is unlimited", -1, false, []string{"p5", "p3", "p2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := store.ListItemsNeedingImages(ctx, tt.limit, tt.includeAll)
			require.NoError(t, err)
			assert.Equal(t, tt.want, itemIDs(items))
		})
	}
}

func TestSQLite_ListItemsNeedingImages_ScansNullableColumns(t *testing.T) {
	store := setupSQLite(t, sampleCatalog()...)

	items, err := store.ListItemsNeedingImages(context.Background(), 0, true)
	require.NoError(t, err)

	byID := make(map[string]types.CatalogItem)
	for _, item := range items {
		byID[item.ID] = item
	}
	require.NotNil(t, byID["p3"].Code)
	assert.Equal(t, "7501008491577", *byID["p3"].Code)
	assert.Nil(t, byID["p5"].Code)
	assert.True(t, byID["p1"].HasImage())
	assert.False(t, byID["p2"].HasImage())
	assert.True(t, byID["p2"].Active)
}

func TestSQLite_ListItemsWithImages(t *testing.T) {
	items := append(sampleCatalog(),
		types.CatalogItem{ID: "p6", Clave: "1006", Name: "INACTIVO", Image: strPtr("https://cdn.example.com/x.jpg"), Active: false},
		types.CatalogItem{ID: "p7", Clave: "1007", Name: "VACIO", Image: strPtr(""), Active: true},
	)
	store := setupSQLite(t, items...)

	images, err := store.ListItemsWithImages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []types.NamedImage{
		{Name: "TEMPRA TAB 500MG C/20", ImageURL: "https://cdn.example.com/tempra.jpg"},
	}, images)
}

func TestSQLite_SetImage_DoesNotOverwrite(t *testing.T) {
	store := setupSQLite(t, sampleCatalog()...)
	ctx := context.Background()

	n, err := store.SetImage(ctx, "p2", "https://cdn.example.com/new.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.SetImage(ctx, "p1", "https://cdn.example.com/other.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	p1, err := store.GetItem(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/tempra.jpg", *p1.Image)

	p2, err := store.GetItem(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/new.jpg", *p2.Image)
}

func TestSQLite_SetImagesBatch(t *testing.T) {
	store := setupSQLite(t, sampleCatalog()...)
	ctx := context.Background()

	n, err := store.SetImagesBatch(ctx, []types.ImageAssignment{
		{ItemID: "p2", ImageURL: "https://cdn.example.com/2.jpg"},
		{ItemID: "p3", ImageURL: "https://cdn.example.com/3.jpg"},
		{ItemID: "p1", ImageURL: "https://cdn.example.com/ignored.jpg"},
		{ItemID: "missing", ImageURL: "https://cdn.example.com/none.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	remaining, err := store.ListItemsNeedingImages(ctx, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"p5"}, itemIDs(remaining))

	n, err = store.SetImagesBatch(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_ClearAllImages_And_CountActive(t *testing.T) {
	store := setupSQLite(t, sampleCatalog()...)
	ctx := context.Background()

	total, withImage, err := store.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, int64(1), withImage)

	n, err := store.ClearAllImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, withImage, err = store.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, withImage)
}

func TestSQLite_GetItem_Missing(t *testing.T) {
	store := setupSQLite(t)

	item, err := store.GetItem(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "UPDATE t SET a = ?1 WHERE id = ?2", rebind("UPDATE t SET a = $1 WHERE id = $2"))
	assert.Equal(t, `SELECT "updatedAt" FROM t`, rebind(`SELECT "updatedAt" FROM t`))
}
