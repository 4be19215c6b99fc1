// Package helper is the runtime imported by code that openhelper generates.
//
// The generator emits, per schema, a lifecycle delegate (creating, dropping
// and validating tables, plus callback fan-out) and the wiring that hands it
// to an OpenHelperFactory. This package supplies everything that wiring
// refers to: the Conn handle, the Delegate contract, configurations, the
// default database/sql backed factory, the create/upgrade/open state machine
// (LifecycleCallback), table introspection (TableInfo) and the invalidation
// tracker.
//
// # Module Structure
//
// Like the generator's own schema package, this package only depends on the
// standard library, so applications pulling in generated code do not inherit
// the generator's CLI dependencies. The SQL driver is chosen by the
// application: pass its name to SQLFactory.
//
// # Basic Usage
//
//	db, err := notes.NewNotesDatabase(&helper.DatabaseConfiguration{
//	    Dir:               dataDir,
//	    Name:              "notes.db",
//	    OpenHelperFactory: helper.SQLFactory{DriverName: "sqlite"},
//	})
//	if err != nil {
//	    return err
//	}
//	sqlDB, err := db.Open(ctx)
//
// # Concurrency
//
// An open helper serializes Open, so create, upgrade, open and validation
// never run concurrently for one database. Generated delegates add no locking
// of their own. Databases opened by SQLFactory use a single connection: SQLite
// pragmas, TEMP tables and triggers are per connection, and the lifecycle
// relies on them applying to every later query.
package helper

import (
	"context"
	"database/sql"
)

// Conn is the minimal handle the lifecycle code runs statements on.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Delegate is the generated lifecycle controller for one schema version.
//
// CreateAllTables and DropAllTables return execution errors untouched.
// ValidateMigration returns a *SchemaMismatchError (matching
// ErrSchemaMismatch) when the on-disk schema differs from the expected one.
type Delegate interface {
	Version() int
	CreateAllTables(ctx context.Context, db Conn) error
	DropAllTables(ctx context.Context, db Conn) error
	OnCreate(ctx context.Context, db Conn) error
	OnOpen(ctx context.Context, db Conn) error
	ValidateMigration(ctx context.Context, db Conn) error
}

// DelegateBase binds a delegate to its schema version. Generated delegates
// embed it.
type DelegateBase struct {
	SchemaVersion int
}

// Version returns the schema version the delegate was generated for.
func (b DelegateBase) Version() int { return b.SchemaVersion }

// Callback is an application hook invoked after tables are created and on
// every open, in registration order. A returned error aborts the open.
type Callback interface {
	OnCreate(ctx context.Context, db Conn) error
	OnOpen(ctx context.Context, db Conn) error
}

// CallbackFuncs adapts plain functions to Callback. Nil functions are no-ops.
type CallbackFuncs struct {
	Create func(ctx context.Context, db Conn) error
	Open   func(ctx context.Context, db Conn) error
}

// OnCreate implements Callback.
func (c CallbackFuncs) OnCreate(ctx context.Context, db Conn) error {
	if c.Create == nil {
		return nil
	}
	return c.Create(ctx, db)
}

// OnOpen implements Callback.
func (c CallbackFuncs) OnOpen(ctx context.Context, db Conn) error {
	if c.Open == nil {
		return nil
	}
	return c.Open(ctx, db)
}
