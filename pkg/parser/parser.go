// Package parser reads openhelper schema files.
//
// A schema file is YAML describing one database:
//
//	name: NotesDatabase
//	version: 2
//	enforce_foreign_keys: true
//	entities:
//	  - table: note
//	    columns:
//	      - {name: id, type: INTEGER, not_null: true}
//	      - {name: title, type: TEXT, not_null: true}
//	    primary_key: {columns: [id], auto_generate: true}
//
// Unknown keys are rejected so typos fail loudly instead of silently
// producing a different schema. The returned model has been completed
// (derived statements and digests filled in) and validated.
//
// # Basic Usage
//
//	db, err := parser.ParseSchema("schema/notes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package parser

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/pthm/openhelper/pkg/schema"
)

// ParseSchema reads a schema file and returns the completed model.
func ParseSchema(path string) (*schema.Database, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path is from trusted source
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	return ParseSchemaString(string(content))
}

// ParseSchemaString parses schema YAML and returns the completed model.
func ParseSchemaString(content string) (*schema.Database, error) {
	var db schema.Database
	if err := yaml.UnmarshalStrict([]byte(content), &db); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrInvalidSchema, err)
	}

	if err := db.Complete(); err != nil {
		return nil, err
	}
	return &db, nil
}
