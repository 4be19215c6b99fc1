package writer

import (
	"fmt"
	"strings"

	"github.com/pthm/openhelper/helper"
	"github.com/pthm/openhelper/internal/gogen"
	"github.com/pthm/openhelper/pkg/schema"
)

// TableValidator emits the code that checks one table's on-disk shape.
//
// The returned block runs inside a method with ctx and the named db handle
// in scope, returning error. It must return a *helper.SchemaMismatchError on
// drift and any read error unchanged. The count is the number of top-level
// statements in the block and drives chunk planning.
type TableValidator interface {
	Validate(entity schema.Entity, dbParam string, scope *gogen.Scope) (gogen.Block, int)
}

// TableInfoValidationWriter builds the expected helper.TableInfo of a table,
// reads the actual one and compares them.
type TableInfoValidationWriter struct{}

// Validate implements TableValidator.
func (TableInfoValidationWriter) Validate(e schema.Entity, dbParam string, scope *gogen.Scope) (gogen.Block, int) {
	suffix := gogen.IdentSuffix(e.TableName)
	columnsVar := scope.TmpVar("_columns" + suffix)
	foreignKeysVar := scope.TmpVar("_foreignKeys" + suffix)
	indicesVar := scope.TmpVar("_indices" + suffix)
	infoVar := scope.TmpVar("_info" + suffix)
	existingVar := scope.TmpVar("_existing" + suffix)

	expected := ExpectedTableInfo(e)
	table := gogen.Quote(e.TableName)

	var b gogen.Block
	b.Add(gogen.Define(fmt.Sprintf("make(map[string]helper.Column, %d)", len(e.Fields)), columnsVar))
	for _, f := range e.Fields {
		b.Addf("%s[%s] = %s", columnsVar, gogen.Quote(f.Name), columnLiteral(expected.Columns[f.Name]))
	}

	b.Add(gogen.Define(fmt.Sprintf("make([]helper.ForeignKey, 0, %d)", len(expected.ForeignKeys)), foreignKeysVar))
	for _, fk := range expected.ForeignKeys {
		b.Addf("%s = append(%s, %s)", foreignKeysVar, foreignKeysVar, foreignKeyLiteral(fk))
	}

	b.Add(gogen.Define(fmt.Sprintf("make([]helper.Index, 0, %d)", len(expected.Indices)), indicesVar))
	for _, idx := range expected.Indices {
		b.Addf("%s = append(%s, %s)", indicesVar, indicesVar, indexLiteral(idx))
	}

	b.Add(gogen.Define(fmt.Sprintf("helper.TableInfo{Name: %s, Columns: %s, ForeignKeys: %s, Indices: %s}",
		table, columnsVar, foreignKeysVar, indicesVar), infoVar))
	b.Add(gogen.Define(fmt.Sprintf("helper.ReadTableInfo(ctx, %s, %s)", dbParam, table), existingVar, "err"))
	b.Add(gogen.If{Cond: "err != nil", Then: gogen.Block{gogen.Return{Values: []string{"err"}}}})
	b.Add(gogen.If{
		Cond: fmt.Sprintf("!%s.Equal(%s)", infoVar, existingVar),
		Then: gogen.Block{gogen.Return{Values: []string{
			fmt.Sprintf("&helper.SchemaMismatchError{Table: %s, Expected: %s, Found: %s}", table, infoVar, existingVar),
		}}},
	})
	return b, len(b)
}

// ValidationStatementCount returns how many statements
// TableInfoValidationWriter emits for an entity without emitting them.
func ValidationStatementCount(e schema.Entity) int {
	return len(e.Fields) + len(e.ForeignKeys) + len(e.Indices) + 7
}

// ExpectedTableInfo returns the TableInfo that PRAGMA introspection reports
// for a table created from e.
func ExpectedTableInfo(e schema.Entity) helper.TableInfo {
	info := helper.TableInfo{
		Name:        e.TableName,
		Columns:     make(map[string]helper.Column, len(e.Fields)),
		ForeignKeys: make([]helper.ForeignKey, 0, len(e.ForeignKeys)),
		Indices:     make([]helper.Index, 0, len(e.Indices)),
	}
	for _, f := range e.Fields {
		info.Columns[f.Name] = helper.Column{
			Name:               f.Name,
			Type:               strings.ToUpper(f.Type),
			NotNull:            f.NotNull,
			PrimaryKeyPosition: e.PrimaryKeyPosition(f.Name),
		}
	}
	for _, fk := range e.ForeignKeys {
		info.ForeignKeys = append(info.ForeignKeys, helper.ForeignKey{
			ReferenceTable:       fk.ParentTable,
			OnDelete:             fk.OnDeleteAction(),
			OnUpdate:             fk.OnUpdateAction(),
			ColumnNames:          append([]string(nil), fk.ChildColumns...),
			ReferenceColumnNames: append([]string(nil), fk.ParentColumns...),
		})
	}
	for _, idx := range e.Indices {
		info.Indices = append(info.Indices, helper.Index{
			Name:    idx.Name,
			Unique:  idx.Unique,
			Columns: append([]string(nil), idx.Columns...),
		})
	}
	return info
}

func columnLiteral(c helper.Column) string {
	return fmt.Sprintf("helper.Column{Name: %s, Type: %s, NotNull: %t, PrimaryKeyPosition: %d}",
		gogen.Quote(c.Name), gogen.Quote(c.Type), c.NotNull, c.PrimaryKeyPosition)
}

func foreignKeyLiteral(fk helper.ForeignKey) string {
	return fmt.Sprintf("helper.ForeignKey{ReferenceTable: %s, OnDelete: %s, OnUpdate: %s, ColumnNames: %s, ReferenceColumnNames: %s}",
		gogen.Quote(fk.ReferenceTable), gogen.Quote(fk.OnDelete), gogen.Quote(fk.OnUpdate),
		stringSlice(fk.ColumnNames), stringSlice(fk.ReferenceColumnNames))
}

func indexLiteral(idx helper.Index) string {
	return fmt.Sprintf("helper.Index{Name: %s, Unique: %t, Columns: %s}",
		gogen.Quote(idx.Name), idx.Unique, stringSlice(idx.Columns))
}

func stringSlice(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = gogen.Quote(v)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}
