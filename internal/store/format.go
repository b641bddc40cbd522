// Package store persists nickname indices. The default form is a JSON object
// mapping each nickname to its list of files; a SQLite database holding the
// same postings is available for large archives.
package store

import (
	"fmt"
	"path/filepath"
	"strings"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
)

// Format is a persisted index format.
type Format string

const (
	// FormatJSON is a JSON object of nickname to path list.
	FormatJSON Format = "json"
	// FormatSQLite is a SQLite database with a postings table.
	FormatSQLite Format = "sqlite"
)

// sqliteExtensions are file extensions that select FormatSQLite when no format
// is given.
var sqliteExtensions = map[string]bool{
	".db":      true,
	".sqlite":  true,
	".sqlite3": true,
}

// ParseFormat parses a format name. The empty string means "detect".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "sqlite", "sqlite3":
		return FormatSQLite, nil
	default:
		return "", werrors.ValidationError(fmt.Sprintf("unknown index format %q (want json or sqlite)", s), nil)
	}
}

// DetectFormat returns explicit if set, otherwise the format implied by the
// extension of path. Standard streams (empty path or "-") are always JSON.
func DetectFormat(path string, explicit Format) Format {
	if explicit != "" {
		return explicit
	}
	if path == "" || path == "-" {
		return FormatJSON
	}
	if sqliteExtensions[strings.ToLower(filepath.Ext(path))] {
		return FormatSQLite
	}
	return FormatJSON
}
