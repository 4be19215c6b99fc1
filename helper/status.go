package helper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MasterTableName is the table the identity hash is recorded in.
const MasterTableName = "openhelper_master_table"

// identityRowID is the fixed primary key of the single identity row.
const identityRowID = 42

const (
	createMasterTableQuery = "CREATE TABLE IF NOT EXISTS " + MasterTableName +
		" (id INTEGER PRIMARY KEY, identity_hash TEXT)"
	writeIdentityQuery = "INSERT OR REPLACE INTO " + MasterTableName +
		" (id, identity_hash) VALUES (?, ?)"
	readIdentityQuery = "SELECT identity_hash FROM " + MasterTableName + " WHERE id = ? LIMIT 1"
)

// Status describes the lifecycle state of a database file.
type Status struct {
	// UserVersion is PRAGMA user_version; 0 means never created.
	UserVersion int

	// HasMasterTable is true once an identity hash has been recorded.
	HasMasterTable bool

	// IdentityHash is the recorded identity, empty if none.
	IdentityHash string

	// Tables lists user tables, excluding SQLite internals and the master table.
	Tables []string
}

// ReadStatus inspects a database without modifying it.
func ReadStatus(ctx context.Context, db Conn) (*Status, error) {
	version, err := ReadUserVersion(ctx, db)
	if err != nil {
		return nil, err
	}

	status := &Status{UserVersion: version}
	status.HasMasterTable, status.IdentityHash, err = ReadIdentityHash(ctx, db)
	if err != nil {
		return nil, err
	}

	rows, err := queryRows(ctx, db, `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != ?
		ORDER BY name`, MasterTableName)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	for _, r := range rows {
		status.Tables = append(status.Tables, asString(r["name"]))
	}
	return status, nil
}

// ReadUserVersion returns PRAGMA user_version.
func ReadUserVersion(ctx context.Context, db Conn) (int, error) {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading user_version: %w", err)
	}
	return version, nil
}

// ReadIdentityHash returns whether the master table exists and the identity
// hash recorded in it.
func ReadIdentityHash(ctx context.Context, db Conn) (bool, string, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		MasterTableName).Scan(&count)
	if err != nil {
		return false, "", fmt.Errorf("checking %s: %w", MasterTableName, err)
	}
	if count == 0 {
		return false, "", nil
	}

	var hash sql.NullString
	err = db.QueryRowContext(ctx, readIdentityQuery, identityRowID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return true, "", nil
	}
	if err != nil {
		return true, "", fmt.Errorf("reading identity hash: %w", err)
	}
	return true, hash.String, nil
}

// writeIdentityHash records hash in the master table, creating it if needed.
func writeIdentityHash(ctx context.Context, db Conn, hash string) error {
	if _, err := db.ExecContext(ctx, createMasterTableQuery); err != nil {
		return fmt.Errorf("creating %s: %w", MasterTableName, err)
	}
	if _, err := db.ExecContext(ctx, writeIdentityQuery, identityRowID, hash); err != nil {
		return fmt.Errorf("writing identity hash: %w", err)
	}
	return nil
}

// isEmptyDatabase reports whether the database holds no user tables.
func isEmptyDatabase(ctx context.Context, db Conn) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'").Scan(&count)
	if err != nil {
		return false, fmt.Errorf("counting tables: %w", err)
	}
	return count == 0, nil
}
