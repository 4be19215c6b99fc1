package helper

import (
	"context"
	"fmt"
)

// LifecycleCallback adapts a generated Delegate to the OpenCallback events of
// an open helper and guards the database identity.
//
// The lifecycle:
//  1. A fresh database (user_version 0) gets all tables created. If it
//     already held tables (e.g. a pre-packaged file) they are validated.
//     The identity hash is recorded and the delegate's OnCreate runs.
//  2. A version change resets the database destructively when the
//     configuration allows it, otherwise fails with ErrMigrationRequired.
//  3. Every open checks the recorded identity hash against the current and
//     legacy hashes. A database without a recorded identity is validated
//     and then stamped. The delegate's OnOpen runs last.
type LifecycleCallback struct {
	configuration      *DatabaseConfiguration
	delegate           Delegate
	identityHash       string
	legacyIdentityHash string
}

// NewLifecycleCallback binds a delegate to its identity hashes.
func NewLifecycleCallback(configuration *DatabaseConfiguration, delegate Delegate, identityHash, legacyIdentityHash string) *LifecycleCallback {
	return &LifecycleCallback{
		configuration:      configuration,
		delegate:           delegate,
		identityHash:       identityHash,
		legacyIdentityHash: legacyIdentityHash,
	}
}

// Version implements OpenCallback.
func (l *LifecycleCallback) Version() int {
	return l.delegate.Version()
}

// OnConfigure implements OpenCallback.
func (l *LifecycleCallback) OnConfigure(ctx context.Context, db Conn) error {
	return nil
}

// OnCreate implements OpenCallback.
func (l *LifecycleCallback) OnCreate(ctx context.Context, db Conn) error {
	empty, err := isEmptyDatabase(ctx, db)
	if err != nil {
		return err
	}
	if err := l.delegate.CreateAllTables(ctx, db); err != nil {
		return err
	}
	if !empty {
		if err := l.delegate.ValidateMigration(ctx, db); err != nil {
			return err
		}
	}
	if err := writeIdentityHash(ctx, db, l.identityHash); err != nil {
		return err
	}
	return l.delegate.OnCreate(ctx, db)
}

// OnUpgrade implements OpenCallback. Migrations are not executed; the only
// supported path between versions is a destructive reset.
func (l *LifecycleCallback) OnUpgrade(ctx context.Context, db Conn, oldVersion, newVersion int) error {
	if l.configuration == nil || l.configuration.IsMigrationRequiredFrom(oldVersion) {
		return fmt.Errorf("%w: from version %d to %d, enable AllowDestructiveReset to recreate the database",
			ErrMigrationRequired, oldVersion, newVersion)
	}
	if err := l.delegate.DropAllTables(ctx, db); err != nil {
		return err
	}
	if err := l.delegate.CreateAllTables(ctx, db); err != nil {
		return err
	}
	return writeIdentityHash(ctx, db, l.identityHash)
}

// OnDowngrade implements OpenCallback.
func (l *LifecycleCallback) OnDowngrade(ctx context.Context, db Conn, oldVersion, newVersion int) error {
	return l.OnUpgrade(ctx, db, oldVersion, newVersion)
}

// OnOpen implements OpenCallback.
func (l *LifecycleCallback) OnOpen(ctx context.Context, db Conn) error {
	if err := l.checkIdentity(ctx, db); err != nil {
		return err
	}
	return l.delegate.OnOpen(ctx, db)
}

func (l *LifecycleCallback) checkIdentity(ctx context.Context, db Conn) error {
	hasMaster, recorded, err := ReadIdentityHash(ctx, db)
	if err != nil {
		return err
	}

	if hasMaster {
		if recorded != l.identityHash && recorded != l.legacyIdentityHash {
			return fmt.Errorf("%w: expected %s, found %s; the schema changed without a version bump",
				ErrIdentityMismatch, l.identityHash, recorded)
		}
		return nil
	}

	if err := l.delegate.ValidateMigration(ctx, db); err != nil {
		return err
	}
	return writeIdentityHash(ctx, db, l.identityHash)
}
