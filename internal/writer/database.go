// Package writer emits the Go source of a database's lifecycle controller.
//
// The output for one schema model is a single file holding:
//   - the unexported delegate type implementing helper.Delegate: creating and
//     dropping all tables, OnCreate/OnOpen with callback fan-out, and schema
//     validation split across as many methods as the chunk ceiling requires;
//   - the open helper wiring: a lifecycle callback around the delegate, an
//     open helper configuration and the factory call;
//   - an exported constructor returning a *helper.Database.
//
// Output is deterministic: the same model and Config always produce the same
// bytes.
package writer

import (
	"errors"
	"fmt"
	"path"

	"github.com/pthm/openhelper/internal/gogen"
	"github.com/pthm/openhelper/pkg/schema"
)

// DefaultRuntimeImport is the import path of the runtime package generated
// code depends on.
const DefaultRuntimeImport = "github.com/pthm/openhelper/helper"

// Config holds generation options.
type Config struct {
	// Package is the package name of the generated file.
	Package string

	// RuntimeImport overrides the import path of the helper runtime. The
	// package is always referred to as helper.
	RuntimeImport string

	// ChunkSize caps the statements per validation method.
	ChunkSize int

	// Source is recorded in the file header when set, typically the schema
	// file path.
	Source string

	// Validator overrides the per-table validation emitter.
	Validator TableValidator
}

// DefaultConfig returns the defaults: package "db", the bundled runtime and
// a ceiling of ValidateChunkSize.
func DefaultConfig() *Config {
	return &Config{
		Package:       "db",
		RuntimeImport: DefaultRuntimeImport,
		ChunkSize:     ValidateChunkSize,
	}
}

// GenerateFile renders the formatted Go file for db.
func GenerateFile(db *schema.Database, cfg *Config) ([]byte, error) {
	if db == nil {
		return nil, errors.New("writer: nil schema")
	}
	if err := db.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	file, err := BuildFile(db, cfg)
	if err != nil {
		return nil, err
	}
	return file.Bytes()
}

// BuildFile assembles the unformatted file for db.
func BuildFile(db *schema.Database, cfg *Config) (gogen.File, error) {
	pkg := cfg.Package
	if pkg == "" {
		pkg = "db"
	}
	if !isIdentifier(pkg) {
		return gogen.File{}, fmt.Errorf("writer: invalid package name %q", pkg)
	}

	runtime := gogen.Import{Path: cfg.RuntimeImport}
	if runtime.Path == "" {
		runtime.Path = DefaultRuntimeImport
	}
	if path.Base(runtime.Path) != "helper" {
		runtime.Name = "helper"
	}

	w := NewOpenHelperWriter(db)
	if cfg.Validator != nil {
		w.Validator = cfg.Validator
	}
	if cfg.ChunkSize > 0 {
		w.ChunkSize = cfg.ChunkSize
	}

	name := gogen.Exported(db.Name)
	tablesVar := gogen.Unexported(db.Name) + "Tables"
	openHelperFunc := "new" + name + "OpenHelper"

	scope := gogen.NewScope()
	wiring := w.Write("_helper", "configuration", "database", scope.Fork())
	wiring.Add(gogen.Return{Values: []string{"_helper"}})

	header := []string{"Code generated by openhelper. DO NOT EDIT."}
	if cfg.Source != "" {
		header = append(header, "Source: "+cfg.Source)
	}

	decls := []gogen.Decl{
		gogen.Var{
			Doc:   []string{name + "Version is the schema version stored in PRAGMA user_version."},
			Name:  name + "Version",
			Value: fmt.Sprint(db.Version),
			Const: true,
		},
		gogen.Var{
			Doc:   []string{name + "IdentityHash identifies the schema this file was generated from."},
			Name:  name + "IdentityHash",
			Value: gogen.Quote(db.IdentityHash),
			Const: true,
		},
		gogen.Var{
			Doc:   []string{tablesVar + " lists the tables tracked for invalidation, in declaration order."},
			Name:  tablesVar,
			Value: stringSlice(db.TableNames()),
		},
		gogen.Func{
			Doc: []string{
				"New" + name + " returns the " + name + ". Tables are created or validated",
				"on the first Open.",
			},
			Name:    "New" + name,
			Params:  []gogen.Param{{Name: "configuration", Type: "*helper.DatabaseConfiguration"}},
			Results: []string{"*helper.Database", "error"},
			Body: gogen.Block{gogen.Return{Values: []string{
				fmt.Sprintf("helper.NewDatabase(configuration, %s, %s)", tablesVar, openHelperFunc),
			}}},
		},
		gogen.Func{
			Name: openHelperFunc,
			Params: []gogen.Param{
				{Name: "database", Type: "*helper.Database"},
				{Name: "configuration", Type: "*helper.DatabaseConfiguration"},
			},
			Results: []string{"helper.OpenHelper"},
			Body:    wiring,
		},
	}
	decls = append(decls, w.Delegate(scope.Fork())...)

	return gogen.File{
		Header:  header,
		Package: pkg,
		Imports: []gogen.Import{{Path: "context"}, runtime},
		Decls:   decls,
	}, nil
}

// isIdentifier reports whether s is a plain Go identifier.
func isIdentifier(s string) bool {
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
