// Package sqlite selects the SQLite driver the openhelper CLI opens databases
// with.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite, registered as "sqlite".
//   - -tags cgo_sqlite (CGO_ENABLED=1): mattn/go-sqlite3, registered as "sqlite3".
//
// Callers pass DriverName to helper.SQLFactory or use Open directly.
package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/pthm/openhelper/helper"
)

// DriverName returns the database/sql driver name of the linked driver.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Factory returns an open helper factory using the linked driver.
func Factory() helper.SQLFactory {
	return helper.SQLFactory{DriverName: driverName}
}

// Open opens a SQLite database with a single connection. Pragmas and TEMP
// objects are per connection, so every query must see the same one.
func Open(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dataSourceName, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// OpenReadOnly opens an existing database file without write access.
func OpenReadOnly(path string) (*sql.DB, error) {
	dsn, err := readOnlyURI(path)
	if err != nil {
		return nil, err
	}
	return Open(dsn)
}

// readOnlyURI returns a file: URI for path with mode=ro. The path is made
// absolute and percent-encoded so '?', '#' and '%' in file names survive.
func readOnlyURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	u := url.URL{Scheme: "file", Path: abs, RawQuery: "mode=ro"}
	return u.String(), nil
}

// Info describes the linked driver.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the linked driver.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
