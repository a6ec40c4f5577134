package database

import "strings"

// Driver names a SQL backend. Its value is also the migrations directory.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

var sqliteMarkers = struct {
	prefixes, suffixes []string
}{
	prefixes: []string{"sqlite://", "file:"},
	suffixes: []string{".db", ".sqlite", ".sqlite3"},
}

// DetectDriver picks the driver for a store URL. Anything that is not a
// postgres URL is a SQLite location.
func DetectDriver(url string) Driver {
	if IsPostgresURL(url) {
		return DriverPostgres
	}
	return DriverSQLite
}

// IsPostgresURL reports whether url uses a PostgreSQL scheme.
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// IsSQLiteURL reports whether url names a SQLite database by scheme or extension.
func IsSQLiteURL(url string) bool {
	for _, p := range sqliteMarkers.prefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	for _, s := range sqliteMarkers.suffixes {
		if strings.HasSuffix(url, s) {
			return true
		}
	}
	return false
}

// SQLitePathFromURL strips the scheme and query of a SQLite URL.
func SQLitePathFromURL(url string) string {
	path := url
	for _, p := range sqliteMarkers.prefixes {
		path = strings.TrimPrefix(path, p)
	}
	path, _, _ = strings.Cut(path, "?")
	return path
}
