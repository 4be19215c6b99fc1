package writer

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemaparser "github.com/pthm/openhelper/pkg/parser"
	"github.com/pthm/openhelper/pkg/schema"
)

func TestGenerateFile(t *testing.T) {
	db := completedDatabase(t, true, entity("note", 2))
	cfg := DefaultConfig()
	cfg.Package = "store"
	cfg.Source = "schema/app.yaml"

	src, f := generate(t, db, cfg)

	assert.Equal(t, "store", f.Name.Name)
	assert.True(t, strings.HasPrefix(src, "// Code generated by openhelper. DO NOT EDIT.\n// Source: schema/app.yaml\n"))
	assert.Contains(t, src, "const TestDatabaseVersion = 3")
	assert.Contains(t, src, `const TestDatabaseIdentityHash = "`+db.IdentityHash+`"`)
	assert.Contains(t, src, `var testDatabaseTables = []string{"note"}`)
	assert.Contains(t, src, "type testDatabaseDelegate struct {\n\thelper.DelegateBase\n\tdatabase *helper.Database\n}")

	assert.Equal(t, []string{
		"NewTestDatabase",
		"newTestDatabaseOpenHelper",
		"CreateAllTables",
		"DropAllTables",
		"OnCreate",
		"OnOpen",
		"ValidateMigration",
	}, funcNames(f))

	imports := make([]string, 0, len(f.Imports))
	for _, imp := range f.Imports {
		imports = append(imports, imp.Path.Value)
	}
	assert.Equal(t, []string{`"context"`, `"github.com/pthm/openhelper/helper"`}, imports)

	wiring := funcDecl(f, "newTestDatabaseOpenHelper")
	require.NotNil(t, wiring)
	assert.Equal(t, []string{
		"helper.NewLifecycleCallback",
		"helper.NewConfigurationBuilder",
		"configuration.OpenHelperFactory.Create",
	}, filterCalls(calls(wiring.Body), "helper.NewLifecycleCallback", "helper.NewConfigurationBuilder", "configuration.OpenHelperFactory.Create"))
}

func filterCalls(all []string, keep ...string) []string {
	var out []string
	for _, c := range all {
		for _, k := range keep {
			if c == k {
				out = append(out, c)
			}
		}
	}
	return out
}

func TestGenerateFile_RuntimeImportAlias(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RuntimeImport = "example.com/vendored/openhelperrt"
	src, f := generate(t, completedDatabase(t, false, entity("a", 0)), cfg)

	require.Len(t, f.Imports, 2)
	require.NotNil(t, f.Imports[1].Name)
	assert.Equal(t, "helper", f.Imports[1].Name.Name)
	assert.Contains(t, src, `helper "example.com/vendored/openhelperrt"`)
}

func TestGenerateFile_Deterministic(t *testing.T) {
	build := func() []byte {
		db := completedDatabase(t, true, manyTables(120, 3)...)
		out, err := GenerateFile(db, DefaultConfig())
		require.NoError(t, err)
		return out
	}
	first := build()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, build())
	}
}

func TestGenerateFile_Errors(t *testing.T) {
	t.Run("nil schema", func(t *testing.T) {
		_, err := GenerateFile(nil, nil)
		require.Error(t, err)
	})

	t.Run("invalid schema fails fast", func(t *testing.T) {
		db := &schema.Database{Name: "Bad", Version: 0}
		_, err := GenerateFile(db, nil)
		require.Error(t, err)
		assert.True(t, schema.IsInvalidSchemaErr(err))
	})

	t.Run("invalid package name", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Package = "my-pkg"
		_, err := GenerateFile(completedDatabase(t, false, entity("a", 0)), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid package name")
	})
}

func TestGenerateFile_DoesNotMutateSchema(t *testing.T) {
	db := completedDatabase(t, true, manyTables(3, 1)...)
	before := *db
	before.Entities = append([]schema.Entity(nil), db.Entities...)

	_, err := GenerateFile(db, nil)
	require.NoError(t, err)
	assert.Equal(t, before, *db)
}

// The committed examples must stay in sync with the generator.
func TestGenerateFile_NotesExampleInSync(t *testing.T) {
	root := filepath.Join("..", "..", "examples", "notes")
	db, err := schemaparser.ParseSchema(filepath.Join(root, "schema.yaml"))
	require.NoError(t, err)

	tests := []struct {
		file      string
		pkg       string
		chunkSize int
		methods   []string
	}{
		{
			file:    "notes_gen.go",
			pkg:     "notes",
			methods: []string{"ValidateMigration"},
		},
		{
			file:      filepath.Join("chunked", "chunked_gen.go"),
			pkg:       "chunked",
			chunkSize: 12,
			methods:   []string{"ValidateMigration", "validateMigration2", "validateMigration3", "validateMigration4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.pkg, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Package = tt.pkg
			cfg.Source = "examples/notes/schema.yaml"
			if tt.chunkSize > 0 {
				cfg.ChunkSize = tt.chunkSize
			}
			_, generated := generate(t, db, cfg)

			committedSrc, err := os.ReadFile(filepath.Join(root, tt.file))
			require.NoError(t, err)
			committed, err := parser.ParseFile(token.NewFileSet(), tt.file, committedSrc, parser.ParseComments)
			require.NoError(t, err)

			assert.Equal(t, tt.pkg, committed.Name.Name)
			assert.Equal(t, funcNames(generated), funcNames(committed))
			assert.Equal(t, stringLits(generated), stringLits(committed))
			assert.Equal(t, calls(generated), calls(committed))

			names := funcNames(committed)
			assert.Equal(t, tt.methods, names[len(names)-len(tt.methods):])
		})
	}
}
