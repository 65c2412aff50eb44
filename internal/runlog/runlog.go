// Package runlog writes the per-run record of every resolved item as JSON or Parquet.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/novamedix/catalog-images/internal/schemas"
	"github.com/novamedix/catalog-images/internal/types"
	schemadocs "github.com/novamedix/catalog-images/schemas"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatParquet = "parquet"

	DefaultPath = "scraper_results.json"
)

// Record is one run-log row.
type Record struct {
	RunID     string  `json:"run_id" parquet:"run_id"`
	Clave     string  `json:"clave" parquet:"clave"`
	Nombre    string  `json:"nombre" parquet:"nombre"`
	Search    string  `json:"search" parquet:"search"`
	Image     *string `json:"image" parquet:"image,optional"`
	Status    string  `json:"status" parquet:"status"`
	Source    string  `json:"source" parquet:"source"`
	Persisted bool    `json:"persisted" parquet:"persisted"`
	Attempts  int32   `json:"attempts,omitempty" parquet:"attempts"`
	Error     string  `json:"error,omitempty" parquet:"error,optional"`
}

// FromResults converts resolution results into run-log records.
func FromResults(runID string, results []types.ResolutionResult) []Record {
	records := make([]Record, 0, len(results))
	for _, r := range results {
		records = append(records, Record{
			RunID:     runID,
			Clave:     r.Clave,
			Nombre:    r.Name,
			Search:    r.SearchKey,
			Image:     r.ImageURL,
			Status:    r.Status(),
			Source:    string(r.Source),
			Persisted: r.Persisted,
			Attempts:  int32(r.Attempts),
			Error:     r.Error,
		})
	}
	return records
}

// FormatFor returns the format implied by the file extension, defaulting to JSON.
func FormatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return FormatParquet
	}
	return FormatJSON
}

// Write writes records to path in the given format. An empty format is inferred from the path.
func Write(path, format string, records []Record) error {
	if format == "" {
		format = FormatFor(path)
	}
	switch format {
	case FormatJSON:
		return WriteJSON(path, records)
	case FormatParquet:
		return WriteParquet(path, records)
	default:
		return fmt.Errorf("unsupported run log format: %s (supported: json, parquet)", format)
	}
}

// WriteJSON writes records as an indented JSON array after validating them against the run-log schema.
func WriteJSON(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}
	if err := schemas.ValidateBytes(schemadocs.RunLog, data); err != nil {
		return fmt.Errorf("run log failed validation: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run log %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads a JSON run log.
func ReadJSON(path string) ([]Record, error) {
	if err := schemas.ValidateFile(schemadocs.RunLog, path); err != nil {
		return nil, fmt.Errorf("invalid run log %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run log %s: %w", path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse run log %s: %w", path, err)
	}
	return records, nil
}
