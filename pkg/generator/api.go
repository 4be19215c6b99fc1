// Package generator is the public API for generating openhelper lifecycle
// code from build tooling.
//
// The CLI wraps the same calls; use this package from go:generate scripts
// or custom build steps.
package generator

import (
	"fmt"
	"io"

	"github.com/pthm/openhelper/internal/writer"
	"github.com/pthm/openhelper/pkg/schema"
)

// Config is an alias for writer.Config.
// This allows callers to configure generation without importing the
// internal writer package.
type Config = writer.Config

// Database is an alias for schema.Database.
type Database = schema.Database

// ValidateChunkSize is the default statement ceiling per generated
// validation method.
const ValidateChunkSize = writer.ValidateChunkSize

// DefaultConfig returns sensible defaults for code generation.
// Package: "db", the bundled helper runtime, ValidateChunkSize.
func DefaultConfig() *Config {
	return writer.DefaultConfig()
}

// GenerateGo writes the lifecycle controller for db to w.
//
// The generated file holds an unexported delegate implementing
// helper.Delegate, the open helper wiring, and an exported constructor:
//
//	db, _ := parser.ParseSchema("schema/notes.yaml")
//	f, _ := os.Create("internal/store/notes_gen.go")
//	defer f.Close()
//
//	generator.GenerateGo(f, db, &generator.Config{Package: "store"})
//
// The generated file should be committed to version control. Identical
// schemas always produce identical output, so regenerating in CI and
// diffing catches a stale file.
func GenerateGo(w io.Writer, db *Database, cfg *Config) error {
	src, err := writer.GenerateFile(db, cfg)
	if err != nil {
		return err
	}
	if _, err := w.Write(src); err != nil {
		return fmt.Errorf("writing generated code: %w", err)
	}
	return nil
}
