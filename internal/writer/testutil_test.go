package writer

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm/openhelper/internal/gogen"
	"github.com/pthm/openhelper/pkg/schema"
)

// entity builds a table with an id primary key and extra TEXT columns.
func entity(table string, extraColumns int) schema.Entity {
	e := schema.Entity{
		TableName:  table,
		Fields:     []schema.Field{{Name: "id", Type: "INTEGER", NotNull: true}},
		PrimaryKey: schema.PrimaryKey{Columns: []string{"id"}, AutoGenerate: true},
	}
	for i := 0; i < extraColumns; i++ {
		e.Fields = append(e.Fields, schema.Field{Name: fmt.Sprintf("c%d", i), Type: "TEXT"})
	}
	return e
}

func completedDatabase(t *testing.T, fk bool, entities ...schema.Entity) *schema.Database {
	t.Helper()
	db := &schema.Database{
		Name:               "TestDatabase",
		Version:            3,
		EnforceForeignKeys: fk,
		Entities:           entities,
	}
	require.NoError(t, db.Complete())
	return db
}

func manyTables(n, extraColumns int) []schema.Entity {
	out := make([]schema.Entity, n)
	for i := range out {
		out[i] = entity(fmt.Sprintf("table_%03d", i), extraColumns)
	}
	return out
}

func generate(t *testing.T, db *schema.Database, cfg *Config) (string, *ast.File) {
	t.Helper()
	src, err := GenerateFile(db, cfg)
	require.NoError(t, err)

	f, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	require.NoError(t, err, string(src))
	return string(src), f
}

// funcDecl finds a function or method declaration by name.
func funcDecl(f *ast.File, name string) *ast.FuncDecl {
	for _, d := range f.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok && fn.Name.Name == name {
			return fn
		}
	}
	return nil
}

// funcNames lists every function and method name, in source order.
func funcNames(f *ast.File) []string {
	var names []string
	for _, d := range f.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok {
			names = append(names, fn.Name.Name)
		}
	}
	return names
}

// calls lists "recv.Method" / "Func" for every call in n, in source order.
func calls(n ast.Node) []string {
	var out []string
	ast.Inspect(n, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		switch fun := call.Fun.(type) {
		case *ast.SelectorExpr:
			out = append(out, exprString(fun.X)+"."+fun.Sel.Name)
		case *ast.Ident:
			out = append(out, fun.Name)
		}
		return true
	})
	return out
}

func exprString(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.SelectorExpr:
		return exprString(x.X) + "." + x.Sel.Name
	default:
		return "?"
	}
}

// stringLits lists every string literal in n, unquoted, in source order.
func stringLits(n ast.Node) []string {
	var out []string
	ast.Inspect(n, func(n ast.Node) bool {
		lit, ok := n.(*ast.BasicLit)
		if ok && lit.Kind == token.STRING {
			s, err := strconv.Unquote(lit.Value)
			if err == nil {
				out = append(out, s)
			}
		}
		return true
	})
	return out
}

// countingValidator emits a marker statement per table and reports a fixed
// statement count, so chunking can be tested independent of the real
// validator's output size.
type countingValidator map[string]int

func (v countingValidator) Validate(e schema.Entity, dbParam string, scope *gogen.Scope) (gogen.Block, int) {
	return gogen.Block{gogen.Raw{Text: fmt.Sprintf("_ = %s", gogen.Quote("validate "+e.TableName))}}, v[e.TableName]
}
