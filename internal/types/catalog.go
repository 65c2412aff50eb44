// Package types provides type definitions for structured data used throughout the catalog image enrichment system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "context"

// CatalogItem is one product row eligible for an image.
type CatalogItem struct {
	ID     string  `json:"id"`
	Clave  string  `json:"clave"`  // Catalog product key
	Code   *string `json:"codigo"` // Optional secondary code (barcode, supplier code)
	Name   string  `json:"nombre"` // Human-readable product name as stored
	Image  *string `json:"imagen"` // Current image URL, nil when missing
	Active bool    `json:"activo"`
}

// HasImage reports whether the row already holds a non-empty image URL.
func (c CatalogItem) HasImage() bool {
	return c.Image != nil && *c.Image != ""
}

// NamedImage is one (name, image URL) pair read from rows that already have an image.
type NamedImage struct {
	Name     string `json:"nombre"`
	ImageURL string `json:"imagen"`
}

// ImageAssignment is a pending write of one image URL to one catalog row.
type ImageAssignment struct {
	ItemID   string `json:"id"`
	ImageURL string `json:"imagen"`
}

// CatalogStore is the persistence collaborator for the enrichment run.
// Writes never overwrite a row that already holds an image.
type CatalogStore interface {
	// ListItemsNeedingImages returns active rows ordered by name. When includeAllActive
	// is false only rows without an image are returned. A limit <= 0 means no limit.
	ListItemsNeedingImages(ctx context.Context, limit int, includeAllActive bool) ([]CatalogItem, error)
	// ListItemsWithImages returns (name, image) pairs of active rows that have an image, ordered by name.
	ListItemsWithImages(ctx context.Context) ([]NamedImage, error)
	// SetImage assigns url to a single image-less row and returns the number of rows updated.
	SetImage(ctx context.Context, id, url string) (int64, error)
	// SetImagesBatch applies all assignments in one transaction.
	SetImagesBatch(ctx context.Context, assignments []ImageAssignment) (int64, error)
	// ClearAllImages removes every image in the catalog.
	ClearAllImages(ctx context.Context) (int64, error)
	// CountActive returns the number of active rows and how many of them have an image.
	CountActive(ctx context.Context) (total, withImage int64, err error)
	Close()
}
