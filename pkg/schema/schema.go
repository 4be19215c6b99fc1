// Package schema provides the in-memory model of a local SQLite database that
// openhelper generates lifecycle code for.
//
// A Database describes one on-disk schema version: its tables (entities), the
// identity digests used to detect drift at runtime and whether foreign keys
// are enforced. The model is produced by the parser package (or built in code),
// completed once with Complete, and then treated as read-only by the writer.
//
// # Key Types
//
// Database is the schema model. Entity describes one table, with its Fields,
// PrimaryKey, Indices and ForeignKeys. Entities keep declaration order, which
// is significant: it drives CREATE/DROP ordering and validation chunk
// membership in the generated code.
//
// # SQL Formatting
//
// ddl.go renders CREATE TABLE, CREATE INDEX and DROP TABLE statements. Table
// and column identifiers are quoted with backticks, as SQLite accepts them and
// they survive in Go double-quoted string literals unchanged.
//
// # Identity
//
// ComputeIdentityHash and ComputeLegacyIdentityHash derive content digests
// from the schema. The generated code records the digest in the database and
// compares it on every open.
//
// The package is dependency-light and imported by both the generator and the
// doctor command.
package schema

import (
	"fmt"
	"strings"
)

// Database is the schema model of one SQLite database.
type Database struct {
	// Name is the Go-facing name of the database (e.g., "NotesDatabase").
	// The generator derives the delegate type and constructor names from it.
	Name string `json:"name"`

	// Version is the schema version stored in PRAGMA user_version.
	Version int `json:"version"`

	// IdentityHash is the current-form content digest of the schema.
	IdentityHash string `json:"identity_hash,omitempty"`

	// LegacyIdentityHash is the digest produced by the previous algorithm.
	// Databases stamped with it are still accepted on open.
	LegacyIdentityHash string `json:"legacy_identity_hash,omitempty"`

	// EnforceForeignKeys turns on PRAGMA foreign_keys for every open.
	EnforceForeignKeys bool `json:"enforce_foreign_keys,omitempty"`

	// Entities in declaration order.
	Entities []Entity `json:"entities"`
}

// Entity describes one table.
type Entity struct {
	TableName   string       `json:"table"`
	Fields      []Field      `json:"columns"`
	PrimaryKey  PrimaryKey   `json:"primary_key"`
	Indices     []Index      `json:"indices,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`

	// CreateTableStatement is the CREATE TABLE statement for this entity.
	// Complete fills it from CreateTableQuery when empty.
	CreateTableStatement string `json:"create_table_statement,omitempty"`
}

// Field is a column of an entity.
type Field struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	NotNull bool   `json:"not_null,omitempty"`
	// Default is the literal SQL default expression, if any.
	Default string `json:"default,omitempty"`
}

// PrimaryKey lists the primary key columns in key order.
type PrimaryKey struct {
	Columns      []string `json:"columns"`
	AutoGenerate bool     `json:"auto_generate,omitempty"`
}

// Index is a named index over one or more columns.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// ForeignKey references columns of a parent table.
type ForeignKey struct {
	ParentTable   string   `json:"parent_table"`
	ParentColumns []string `json:"parent_columns"`
	ChildColumns  []string `json:"child_columns"`
	OnDelete      string   `json:"on_delete,omitempty"`
	OnUpdate      string   `json:"on_update,omitempty"`
	Deferred      bool     `json:"deferred,omitempty"`
}

// Foreign key actions accepted by SQLite.
const (
	ActionNoAction   = "NO ACTION"
	ActionRestrict   = "RESTRICT"
	ActionSetNull    = "SET NULL"
	ActionSetDefault = "SET DEFAULT"
	ActionCascade    = "CASCADE"
)

var validActions = map[string]bool{
	ActionNoAction:   true,
	ActionRestrict:   true,
	ActionSetNull:    true,
	ActionSetDefault: true,
	ActionCascade:    true,
}

// OnDeleteAction returns the ON DELETE action, defaulting to NO ACTION.
func (fk ForeignKey) OnDeleteAction() string {
	if fk.OnDelete == "" {
		return ActionNoAction
	}
	return strings.ToUpper(fk.OnDelete)
}

// OnUpdateAction returns the ON UPDATE action, defaulting to NO ACTION.
func (fk ForeignKey) OnUpdateAction() string {
	if fk.OnUpdate == "" {
		return ActionNoAction
	}
	return strings.ToUpper(fk.OnUpdate)
}

// Field returns the named field and whether it exists.
func (e Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// PrimaryKeyPosition returns the 1-based position of column in the primary
// key, or 0 if it is not part of it. This matches the pk column of
// PRAGMA table_info.
func (e Entity) PrimaryKeyPosition(column string) int {
	for i, c := range e.PrimaryKey.Columns {
		if c == column {
			return i + 1
		}
	}
	return 0
}

// TableNames returns the table names in declaration order.
func (d *Database) TableNames() []string {
	names := make([]string, 0, len(d.Entities))
	for _, e := range d.Entities {
		names = append(names, e.TableName)
	}
	return names
}

// CreateTableStatements returns each entity's CREATE TABLE statement in
// declaration order.
func (d *Database) CreateTableStatements() []string {
	stmts := make([]string, 0, len(d.Entities))
	for _, e := range d.Entities {
		stmts = append(stmts, e.CreateTableStatement)
	}
	return stmts
}

// Complete derives the CREATE TABLE statements and identity digests that were
// not provided, then validates the model. It must be called once, before the
// model is handed to the writer.
func (d *Database) Complete() error {
	for i := range d.Entities {
		if d.Entities[i].CreateTableStatement == "" {
			d.Entities[i].CreateTableStatement = CreateTableQuery(d.Entities[i])
		}
	}
	if d.IdentityHash == "" {
		d.IdentityHash = ComputeIdentityHash(d)
	}
	if d.LegacyIdentityHash == "" {
		d.LegacyIdentityHash = ComputeLegacyIdentityHash(d)
	}
	return d.Validate()
}

// Validate checks the model for problems that would make the generated code
// wrong. All problems are reported, joined into a single ErrInvalidSchema.
func (d *Database) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if d.Name == "" {
		addf("database name is required")
	} else if !isGoIdentifier(d.Name) {
		addf("database name %q is not a valid Go identifier", d.Name)
	}
	if d.Version < 1 {
		addf("version must be >= 1, got %d", d.Version)
	}
	if d.IdentityHash == "" {
		addf("identity hash is empty")
	}
	if d.LegacyIdentityHash == "" {
		addf("legacy identity hash is empty")
	}
	if d.IdentityHash != "" && d.IdentityHash == d.LegacyIdentityHash {
		addf("identity hash and legacy identity hash must differ")
	}

	tables := make(map[string]bool, len(d.Entities))
	for _, e := range d.Entities {
		if e.TableName == "" {
			addf("entity with empty table name")
			continue
		}
		key := strings.ToLower(e.TableName)
		if tables[key] {
			addf("duplicate table %q", e.TableName)
		}
		tables[key] = true
	}

	for _, e := range d.Entities {
		if e.TableName == "" {
			continue
		}
		for _, p := range validateEntity(e, tables) {
			addf("table %q: %s", e.TableName, p)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSchema, strings.Join(problems, "; "))
	}
	return nil
}

func validateEntity(e Entity, tables map[string]bool) []string {
	var problems []string
	if len(e.Fields) == 0 {
		problems = append(problems, "no columns")
	}
	if e.CreateTableStatement == "" {
		problems = append(problems, "missing CREATE TABLE statement")
	}

	columns := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		switch {
		case f.Name == "":
			problems = append(problems, "column with empty name")
		case columns[strings.ToLower(f.Name)]:
			problems = append(problems, fmt.Sprintf("duplicate column %q", f.Name))
		}
		columns[strings.ToLower(f.Name)] = true
	}
	known := func(c string) bool { return columns[strings.ToLower(c)] }

	if len(e.PrimaryKey.Columns) == 0 {
		problems = append(problems, "primary key is required")
	}
	for _, c := range e.PrimaryKey.Columns {
		if !known(c) {
			problems = append(problems, fmt.Sprintf("primary key column %q not found", c))
		}
	}
	if e.PrimaryKey.AutoGenerate {
		if len(e.PrimaryKey.Columns) != 1 {
			problems = append(problems, "auto_generate requires a single-column primary key")
		} else if f, ok := e.Field(e.PrimaryKey.Columns[0]); ok && !strings.EqualFold(f.Type, "INTEGER") {
			problems = append(problems, "auto_generate requires an INTEGER primary key")
		}
	}

	indexNames := make(map[string]bool, len(e.Indices))
	for _, idx := range e.Indices {
		if idx.Name == "" {
			problems = append(problems, "index with empty name")
		} else if indexNames[idx.Name] {
			problems = append(problems, fmt.Sprintf("duplicate index %q", idx.Name))
		}
		indexNames[idx.Name] = true
		if len(idx.Columns) == 0 {
			problems = append(problems, fmt.Sprintf("index %q has no columns", idx.Name))
		}
		for _, c := range idx.Columns {
			if !known(c) {
				problems = append(problems, fmt.Sprintf("index %q column %q not found", idx.Name, c))
			}
		}
	}

	for _, fk := range e.ForeignKeys {
		if !tables[strings.ToLower(fk.ParentTable)] {
			problems = append(problems, fmt.Sprintf("foreign key parent table %q not found", fk.ParentTable))
		}
		if len(fk.ChildColumns) == 0 || len(fk.ChildColumns) != len(fk.ParentColumns) {
			problems = append(problems, fmt.Sprintf("foreign key to %q must map the same number of child and parent columns", fk.ParentTable))
		}
		for _, c := range fk.ChildColumns {
			if !known(c) {
				problems = append(problems, fmt.Sprintf("foreign key column %q not found", c))
			}
		}
		for _, a := range []string{fk.OnDeleteAction(), fk.OnUpdateAction()} {
			if !validActions[a] {
				problems = append(problems, fmt.Sprintf("foreign key to %q has unknown action %q", fk.ParentTable, a))
			}
		}
	}
	return problems
}

func isGoIdentifier(s string) bool {
	for i, c := range s {
		switch {
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return s != ""
}
