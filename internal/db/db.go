// Package db provides catalog storage for the image enrichment run, backed by
// PostgreSQL (pgx) or a local SQLite snapshot.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/novamedix/catalog-images/internal/types"
)

// DB wraps a PostgreSQL connection pool over the productos table.
type DB struct {
	pool *pgxpool.Pool
}

var _ types.CatalogStore = (*DB)(nil)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, &ConnectionError{Driver: DriverPostgres, Message: "failed to connect to database", Cause: err}
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &ConnectionError{Driver: DriverPostgres, Message: "failed to ping database", Cause: err}
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the productos table when it does not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS productos (
			id          TEXT PRIMARY KEY,
			clave       TEXT NOT NULL,
			codigo      TEXT,
			nombre      TEXT NOT NULL,
			imagen      TEXT,
			activo      BOOLEAN NOT NULL DEFAULT TRUE,
			"updatedAt" TIMESTAMP(3) NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create productos table: %w", err)
	}
	return nil
}

// ListItemsNeedingImages returns active products ordered by name
func (db *DB) ListItemsNeedingImages(ctx context.Context, limit int, includeAllActive bool) ([]types.CatalogItem, error) {
	query, args := listItemsQuery(limit, includeAllActive, "$1")

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	var items []types.CatalogItem
	for rows.Next() {
		var item types.CatalogItem
		if err := rows.Scan(&item.ID, &item.Clave, &item.Code, &item.Name, &item.Image, &item.Active); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	return items, nil
}

// ListItemsWithImages returns the name and image of every active product that has one
func (db *DB) ListItemsWithImages(ctx context.Context) ([]types.NamedImage, error) {
	rows, err := db.pool.Query(ctx, listWithImagesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog images: %w", err)
	}
	defer rows.Close()

	var images []types.NamedImage
	for rows.Next() {
		var img types.NamedImage
		if err := rows.Scan(&img.Name, &img.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan catalog image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list catalog images: %w", err)
	}
	return images, nil
}

// SetImage assigns an image to a product that has none
func (db *DB) SetImage(ctx context.Context, id, url string) (int64, error) {
	tag, err := db.pool.Exec(ctx, setImageQuery, url, id)
	if err != nil {
		return 0, fmt.Errorf("failed to set image for %s: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

// SetImagesBatch applies the assignments in a single transaction
func (db *DB) SetImagesBatch(ctx context.Context, assignments []types.ImageAssignment) (int64, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, a := range assignments {
		batch.Queue(setImageQuery, a.ImageURL, a.ItemID)
	}

	results := tx.SendBatch(ctx, batch)
	var updated int64
	for _, a := range assignments {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("failed to set image for %s: %w", a.ItemID, err)
		}
		updated += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit image batch: %w", err)
	}
	return updated, nil
}

// ClearAllImages removes every product image
func (db *DB) ClearAllImages(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, clearImagesQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to clear images: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountActive returns the active product count and how many have an image
func (db *DB) CountActive(ctx context.Context) (total, withImage int64, err error) {
	err = db.pool.QueryRow(ctx, countActiveQuery).Scan(&total, &withImage)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, withImage, nil
}
