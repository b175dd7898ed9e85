// Package store selects the SQL backend for the WhatsApp session database.
//
// The conversational state itself lives in the business backend; the only
// thing persisted locally is the whatsmeow device store, which runs on
// SQLite by default and PostgreSQL when a server DSN is configured.
package store

import (
	"path/filepath"
	"strings"

	// Drivers registered for the whatsmeow session container.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DSN type names returned by DetectDSNType.
const (
	DSNTypePostgres = "postgres"
	DSNTypeSQLite   = "sqlite"
)

// DetectDSNType classifies a connection string as postgres or sqlite.
// Anything that does not look like a PostgreSQL URL or key-value DSN is
// treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DSNTypePostgres
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return DSNTypePostgres
	}
	return DSNTypeSQLite
}

// DriverFor returns the database/sql driver name for a DSN.
func DriverFor(dsn string) string {
	if DetectDSNType(dsn) == DSNTypePostgres {
		return "postgres"
	}
	return "sqlite3"
}

// IsFileDSN reports whether the DSN refers to a local database file.
func IsFileDSN(dsn string) bool {
	return DetectDSNType(dsn) == DSNTypeSQLite
}

// FileDir returns the directory holding a file-based DSN, stripping any
// file: prefix and query options first.
func FileDir(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return filepath.Dir(path)
}
