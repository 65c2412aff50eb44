package db

import (
	"context"
	"strings"

	"github.com/novamedix/catalog-images/internal/types"
)

// Driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DriverFor picks the driver for a connection string. sqlite: and file: prefixes
// and .db/.sqlite suffixes select SQLite; everything else is PostgreSQL.
func DriverFor(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "sqlite:"), strings.HasPrefix(lower, "file:"):
		return DriverSQLite
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return DriverSQLite
	default:
		return DriverPostgres
	}
}

// sqlitePath strips the scheme prefix from a SQLite connection string.
func sqlitePath(dsn string) string {
	for _, prefix := range []string{"sqlite://", "sqlite:", "file://", "file:"} {
		if len(dsn) >= len(prefix) && strings.EqualFold(dsn[:len(prefix)], prefix) {
			return dsn[len(prefix):]
		}
	}
	return dsn
}

// Open connects to the catalog store named by dsn.
func Open(ctx context.Context, dsn string) (types.CatalogStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, &ConnectionError{Driver: DriverPostgres, Message: "database URL is empty"}
	}
	if DriverFor(dsn) == DriverSQLite {
		store, err := OpenSQLite(ctx, sqlitePath(dsn))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	}
	return Connect(ctx, dsn)
}
