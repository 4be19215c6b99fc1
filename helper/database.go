package helper

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// Database hosts a generated delegate. It keeps the registered callbacks, the
// handle recorded by the lifecycle, the invalidation tracker and the open
// helper built by generated code.
type Database struct {
	// Callbacks registered through the configuration, in registration order.
	// Read-only once the database is constructed.
	Callbacks []Callback

	mu         sync.RWMutex
	handle     Conn
	tracker    *InvalidationTracker
	openHelper OpenHelper
}

// NewDatabase builds a Database for a generated schema. tables are tracked
// for invalidation; newOpenHelper is the generated wiring function.
func NewDatabase(configuration *DatabaseConfiguration, tables []string,
	newOpenHelper func(*Database, *DatabaseConfiguration) OpenHelper,
) (*Database, error) {
	if configuration == nil {
		return nil, errors.New("helper: database configuration is required")
	}
	if configuration.OpenHelperFactory == nil {
		return nil, errors.New("helper: database configuration requires an OpenHelperFactory")
	}

	db := &Database{
		Callbacks: append([]Callback(nil), configuration.Callbacks...),
		tracker:   NewInvalidationTracker(tables...),
	}
	db.openHelper = newOpenHelper(db, configuration)
	return db, nil
}

// Attach records the handle the lifecycle is currently running on.
func (d *Database) Attach(conn Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handle = conn
}

// Handle returns the last attached handle, nil before the first open.
func (d *Database) Handle() Conn {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handle
}

// InitInvalidationTracker prepares change tracking on conn. Generated OnOpen
// methods call it on every open; repeated calls are no-ops.
func (d *Database) InitInvalidationTracker(ctx context.Context, conn Conn) error {
	return d.tracker.Init(ctx, conn)
}

// InvalidationTracker returns the database's invalidation tracker.
func (d *Database) InvalidationTracker() *InvalidationTracker {
	return d.tracker
}

// OpenHelper returns the open helper built by the generated wiring.
func (d *Database) OpenHelper() OpenHelper {
	return d.openHelper
}

// Open opens the database, creating or checking the schema on first use.
func (d *Database) Open(ctx context.Context) (*sql.DB, error) {
	return d.openHelper.Open(ctx)
}

// Close closes the underlying database and forgets the recorded handle.
func (d *Database) Close() error {
	d.mu.Lock()
	d.handle = nil
	d.mu.Unlock()
	d.tracker.reset()
	return d.openHelper.Close()
}
