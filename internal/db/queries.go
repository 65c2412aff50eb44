package db

import "fmt"

// Statements are written with $n placeholders; the SQLite store rebinds them.
const (
	setImageQuery = `UPDATE productos SET imagen = $1, "updatedAt" = CURRENT_TIMESTAMP
		WHERE id = $2 AND imagen IS NULL`

	clearImagesQuery = `UPDATE productos SET imagen = NULL, "updatedAt" = CURRENT_TIMESTAMP
		WHERE imagen IS NOT NULL`

	listWithImagesQuery = `SELECT nombre, imagen FROM productos
		WHERE activo = TRUE AND imagen IS NOT NULL AND imagen <> ''
		ORDER BY nombre, id`

	countActiveQuery = `SELECT COUNT(*),
		COUNT(CASE WHEN imagen IS NOT NULL AND imagen <> '' THEN 1 END)
		FROM productos WHERE activo = TRUE`
)

// listItemsQuery builds the candidate listing; limitPlaceholder is used only when limit > 0.
func listItemsQuery(limit int, includeAllActive bool, limitPlaceholder string) (string, []any) {
	query := `SELECT id, clave, codigo, nombre, imagen, activo FROM productos WHERE activo = TRUE`
	if !includeAllActive {
		query += ` AND imagen IS NULL`
	}
	query += ` ORDER BY nombre, id`

	if limit > 0 {
		return fmt.Sprintf("%s LIMIT %s", query, limitPlaceholder), []any{limit}
	}
	return query, nil
}
