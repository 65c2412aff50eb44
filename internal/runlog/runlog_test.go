package runlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/novamedix/catalog-images/internal/schemas"
	"github.com/novamedix/catalog-images/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleResults() []types.ResolutionResult {
	return []types.ResolutionResult{
		{ItemID: "1", Clave: "1001", Name: "TEMPRA TAB 500MG", SearchKey: "tempra", ImageURL: strPtr("https://cdn.example.com/t.jpg"), Source: types.SourceExternalSearch, Persisted: true, Attempts: 1},
		{ItemID: "2", Clave: "1002", Name: "TEMPRA TAB 500MG", ImageURL: strPtr("https://cdn.example.com/t.jpg"), Source: types.SourceInternalReuse, Persisted: true},
		{ItemID: "3", Clave: "1003", Name: "XYZ", SearchKey: "xyz", Source: types.SourceUnresolved, Attempts: 2, Error: "timeout"},
	}
}

func TestFromResults(t *testing.T) {
	records := FromResults("run-1", sampleResults())

	require.Len(t, records, 3)
	assert.Equal(t, Record{
		RunID:     "run-1",
		Clave:     "1001",
		Nombre:    "TEMPRA TAB 500MG",
		Search:    "tempra",
		Image:     strPtr("https://cdn.example.com/t.jpg"),
		Status:    "found",
		Source:    "external-search",
		Persisted: true,
		Attempts:  1,
	}, records[0])
	assert.Equal(t, "internal-reuse", records[1].Source)
	assert.Equal(t, "not_found", records[2].Status)
	assert.Nil(t, records[2].Image)
	assert.Equal(t, "timeout", records[2].Error)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper_results.json")

	require.NoError(t, WriteJSON(path, FromResults("run-1", sampleResults())))

	records, err := ReadJSON(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "found", records[0].Status)
	assert.Nil(t, records[2].Image)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"image": null`)
}

func TestReadJSON_RejectsInvalidLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper_results.json")
	content := `[{"run_id": "r1", "clave": "1", "nombre": "X", "search": "x",
		"image": null, "status": "maybe", "source": "unresolved", "persisted": false}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := ReadJSON(path)
	require.Error(t, err)
	assert.Nil(t, records)

	var validationErr *schemas.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestWriteJSON_EmptyRunIsEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	require.NoError(t, WriteJSON(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestWriteJSON_RejectsInvalidRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	records := []Record{{RunID: "run-1", Status: "maybe", Source: "external-search"}}

	err := WriteJSON(path, records)

	var validationErr *schemas.ValidationError
	require.ErrorAs(t, err, &validationErr)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteParquet_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.parquet")
	want := FromResults("run-2", sampleResults())

	require.NoError(t, WriteParquet(path, want))

	got, err := ReadParquet(path)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	assert.Equal(t, "run-2", got[0].RunID)
	assert.Equal(t, "https://cdn.example.com/t.jpg", *got[0].Image)
	assert.Nil(t, got[2].Image)
	assert.Equal(t, int32(2), got[2].Attempts)
	assert.Equal(t, "unresolved", got[2].Source)
}

func TestReadParquet_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "results.parquet")
	require.NoError(t, WriteParquet(good, FromResults("run-3", sampleResults())))
	data, err := os.ReadFile(good)
	require.NoError(t, err)

	tests := []struct {
		name    string
		content []byte
	}{
		{name: "truncated", content: data[:len(data)/2]},
		{name: "not parquet", content: []byte("clave,nombre\n1001,TEMPRA\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".parquet")
			require.NoError(t, os.WriteFile(path, tt.content, 0o644))

			got, err := ReadParquet(path)
			assert.Error(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestWrite_FormatSelection(t *testing.T) {
	dir := t.TempDir()
	records := FromResults("run-3", sampleResults())

	tests := []struct {
		name    string
		path    string
		format  string
		wantErr bool
	}{
		{"json by default", filepath.Join(dir, "a.json"), "", false},
		{"parquet by extension", filepath.Join(dir, "b.parquet"), "", false},
		{"explicit parquet", filepath.Join(dir, "c.out"), FormatParquet, false},
		{"unknown format", filepath.Join(dir, "d.csv"), "csv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Write(tt.path, tt.format, records)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, statErr := os.Stat(tt.path)
			assert.NoError(t, statErr)
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("scraper_results.json"))
	assert.Equal(t, FormatParquet, FormatFor("out/RESULTS.PARQUET"))
	assert.Equal(t, FormatJSON, FormatFor("noext"))
}
