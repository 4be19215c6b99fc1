package helper

import (
	"errors"
	"fmt"
)

// Sentinel errors for lifecycle failures. Statement execution errors are
// returned as the driver reports them; these mark the cases where the
// database is reachable but not in the shape the generated code expects.
var (
	// ErrSchemaMismatch is returned when a table on disk differs from the
	// expected schema. The database is usable but outdated or corrupted.
	ErrSchemaMismatch = errors.New("openhelper: schema mismatch")

	// ErrIdentityMismatch is returned when the recorded identity hash matches
	// neither the current nor the legacy hash of the generated schema. This
	// usually means the schema changed without a version bump.
	ErrIdentityMismatch = errors.New("openhelper: identity hash mismatch")

	// ErrMigrationRequired is returned when the stored version differs and a
	// destructive reset is not allowed.
	ErrMigrationRequired = errors.New("openhelper: migration required")
)

// IsSchemaMismatchErr returns true if err is or wraps ErrSchemaMismatch.
func IsSchemaMismatchErr(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsIdentityMismatchErr returns true if err is or wraps ErrIdentityMismatch.
func IsIdentityMismatchErr(err error) bool {
	return errors.Is(err, ErrIdentityMismatch)
}

// IsMigrationRequiredErr returns true if err is or wraps ErrMigrationRequired.
func IsMigrationRequiredErr(err error) bool {
	return errors.Is(err, ErrMigrationRequired)
}

// SchemaMismatchError describes a table whose on-disk shape differs from the
// expected one. It matches ErrSchemaMismatch with errors.Is.
type SchemaMismatchError struct {
	Table    string
	Expected TableInfo
	Found    TableInfo
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("openhelper: migration didn't properly handle %s.\n Expected:\n%s\n Found:\n%s",
		e.Table, e.Expected, e.Found)
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}
