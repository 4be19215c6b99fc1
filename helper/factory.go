package helper

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
)

// OpenCallback receives the low-level lifecycle events of an open helper.
// LifecycleCallback is the implementation generated code uses.
type OpenCallback interface {
	// Version is the schema version the database must end up at.
	Version() int
	OnConfigure(ctx context.Context, db Conn) error
	// OnCreate runs inside the creation transaction of a fresh database.
	OnCreate(ctx context.Context, db Conn) error
	// OnUpgrade and OnDowngrade run inside a transaction when the stored
	// version differs from Version.
	OnUpgrade(ctx context.Context, db Conn, oldVersion, newVersion int) error
	OnDowngrade(ctx context.Context, db Conn, oldVersion, newVersion int) error
	// OnOpen runs outside any transaction once the version is current.
	OnOpen(ctx context.Context, db Conn) error
}

// OpenHelper owns one database and drives its OpenCallback on first use.
type OpenHelper interface {
	DatabaseName() string
	Open(ctx context.Context) (*sql.DB, error)
	Close() error
}

// OpenHelperFactory creates open helpers.
type OpenHelperFactory interface {
	Create(cfg OpenHelperConfiguration) OpenHelper
}

// SQLFactory creates open helpers backed by database/sql. DriverName must be
// registered by the application ("sqlite" for modernc.org/sqlite, "sqlite3"
// for github.com/mattn/go-sqlite3).
type SQLFactory struct {
	DriverName string
}

// Create implements OpenHelperFactory.
func (f SQLFactory) Create(cfg OpenHelperConfiguration) OpenHelper {
	return &sqlOpenHelper{driverName: f.DriverName, cfg: cfg}
}

type sqlOpenHelper struct {
	driverName string
	cfg        OpenHelperConfiguration

	mu sync.Mutex
	db *sql.DB
}

func (h *sqlOpenHelper) DatabaseName() string {
	return h.cfg.Name
}

// dataSourceName resolves the file name against the configured directory.
func (h *sqlOpenHelper) dataSourceName() string {
	if h.cfg.Name == "" {
		return ":memory:"
	}
	if filepath.IsAbs(h.cfg.Name) || h.cfg.Dir == "" {
		return h.cfg.Name
	}
	return filepath.Join(h.cfg.Dir, h.cfg.Name)
}

// Open opens the database on first call, running the lifecycle callback, and
// returns the same handle afterwards.
func (h *sqlOpenHelper) Open(ctx context.Context) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db != nil {
		return h.db, nil
	}

	db, err := sql.Open(h.driverName, h.dataSourceName())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", h.dataSourceName(), err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := h.initialize(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	h.db = db
	return db, nil
}

func (h *sqlOpenHelper) initialize(ctx context.Context, db *sql.DB) error {
	cb := h.cfg.Callback
	if err := cb.OnConfigure(ctx, db); err != nil {
		return fmt.Errorf("configuring database: %w", err)
	}

	current, err := ReadUserVersion(ctx, db)
	if err != nil {
		return err
	}

	if want := cb.Version(); current != want {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		switch {
		case current == 0:
			err = cb.OnCreate(ctx, tx)
		case current < want:
			err = cb.OnUpgrade(ctx, tx, current, want)
		default:
			err = cb.OnDowngrade(ctx, tx, current, want)
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", want)); err != nil {
			return fmt.Errorf("setting user_version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing: %w", err)
		}
	}

	return cb.OnOpen(ctx, db)
}

// Close closes the database if it was opened. The helper can be opened again
// afterwards.
func (h *sqlOpenHelper) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}
