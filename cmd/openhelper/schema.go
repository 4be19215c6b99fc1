package main

import (
	"fmt"
	"os"

	"github.com/pthm/openhelper/internal/cli"
	"github.com/pthm/openhelper/pkg/parser"
	"github.com/pthm/openhelper/pkg/schema"
)

// loadSchema parses the schema file, mapping failures to ExitSchemaParse.
func loadSchema(path string) (*schema.Database, error) {
	if path == "" {
		return nil, cli.ConfigError("--schema is required", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, cli.SchemaParseError(fmt.Sprintf("schema not found: %s", path), nil)
	}
	db, err := parser.ParseSchema(path)
	if err != nil {
		return nil, cli.SchemaParseError("parsing schema", err)
	}
	return db, nil
}
