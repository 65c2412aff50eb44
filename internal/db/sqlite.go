package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/novamedix/catalog-images/internal/types"
	_ "modernc.org/sqlite"
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites $n placeholders into SQLite's ?n form.
func rebind(query string) string {
	return placeholderRe.ReplaceAllString(query, "?$1")
}

// SQLite is a catalog store over a local SQLite file with the same productos layout.
type SQLite struct {
	db *sql.DB
}

var _ types.CatalogStore = (*SQLite)(nil)

// sqliteDSN appends the connection pragmas to path, keeping any query it already has.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// OpenSQLite opens (creating if needed) the SQLite catalog at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, &ConnectionError{Driver: DriverSQLite, Message: "failed to open database", Cause: err}
	}
	// One writer; the run only uses the store from a single goroutine.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Driver: DriverSQLite, Message: "failed to ping database", Cause: err}
	}
	return &SQLite{db: db}, nil
}

// Close closes the database connection
func (s *SQLite) Close() {
	_ = s.db.Close()
}

// EnsureSchema creates the productos table when it does not exist.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS productos (
		id          TEXT PRIMARY KEY,
		clave       TEXT NOT NULL,
		codigo      TEXT,
		nombre      TEXT NOT NULL,
		imagen      TEXT,
		activo      BOOLEAN NOT NULL DEFAULT TRUE,
		"updatedAt" DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_productos_nombre ON productos(nombre);
	`)
	if err != nil {
		return fmt.Errorf("failed to create productos table: %w", err)
	}
	return nil
}

// InsertItem adds a product row. Used to seed local snapshots.
func (s *SQLite) InsertItem(ctx context.Context, item types.CatalogItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO productos (id, clave, codigo, nombre, imagen, activo) VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.Clave, item.Code, item.Name, item.Image, item.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", item.ID, err)
	}
	return nil
}

// GetItem returns a single product by ID, or nil when it does not exist.
func (s *SQLite) GetItem(ctx context.Context, id string) (*types.CatalogItem, error) {
	var item types.CatalogItem
	err := s.db.QueryRowContext(ctx,
		`SELECT id, clave, codigo, nombre, imagen, activo FROM productos WHERE id = ?`, id,
	).Scan(&item.ID, &item.Clave, &item.Code, &item.Name, &item.Image, &item.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &item, nil
}

// ListItemsNeedingImages returns active products ordered by name
func (s *SQLite) ListItemsNeedingImages(ctx context.Context, limit int, includeAllActive bool) ([]types.CatalogItem, error) {
	query, args := listItemsQuery(limit, includeAllActive, "$1")

	rows, err := s.db.QueryContext(ctx, rebind(query), args...)
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
func (s *SQLite) ListItemsWithImages(ctx context.Context) ([]types.NamedImage, error) {
	rows, err := s.db.QueryContext(ctx, listWithImagesQuery)
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
func (s *SQLite) SetImage(ctx context.Context, id, url string) (int64, error) {
	res, err := s.db.ExecContext(ctx, rebind(setImageQuery), url, id)
	if err != nil {
		return 0, fmt.Errorf("failed to set image for %s: %w", id, err)
	}
	return res.RowsAffected()
}

// SetImagesBatch applies the assignments in a single transaction
func (s *SQLite) SetImagesBatch(ctx context.Context, assignments []types.ImageAssignment) (int64, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, rebind(setImageQuery))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare image update: %w", err)
	}
	defer stmt.Close()

	var updated int64
	for _, a := range assignments {
		res, err := stmt.ExecContext(ctx, a.ImageURL, a.ItemID)
		if err != nil {
			return 0, fmt.Errorf("failed to set image for %s: %w", a.ItemID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		updated += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit image batch: %w", err)
	}
	return updated, nil
}

// ClearAllImages removes every product image
func (s *SQLite) ClearAllImages(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, clearImagesQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to clear images: %w", err)
	}
	return res.RowsAffected()
}

// CountActive returns the active product count and how many have an image
func (s *SQLite) CountActive(ctx context.Context) (total, withImage int64, err error) {
	err = s.db.QueryRowContext(ctx, countActiveQuery).Scan(&total, &withImage)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, withImage, nil
}
