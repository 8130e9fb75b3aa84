// Package dialect names the SQL drivers the history store runs on and the
// portability switches between them.
package dialect

// Driver names as registered with database/sql.
const (
	SQLite3 = "sqlite3"
	PGX     = "pgx"
)

// IsPostgres reports whether the driver is PostgreSQL (pgx).
func IsPostgres(driver string) bool {
	return driver == PGX
}
