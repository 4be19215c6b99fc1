package helper

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Affinity is a SQLite column type affinity.
type Affinity string

// Type affinities, see https://www.sqlite.org/datatype3.html.
const (
	AffinityInteger Affinity = "INTEGER"
	AffinityText    Affinity = "TEXT"
	AffinityBlob    Affinity = "BLOB"
	AffinityReal    Affinity = "REAL"
	AffinityNumeric Affinity = "NUMERIC"
)

// AffinityOf applies SQLite's affinity rules to a declared column type.
func AffinityOf(declaredType string) Affinity {
	t := strings.ToUpper(declaredType)
	switch {
	case strings.Contains(t, "INT"):
		return AffinityInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return AffinityText
	case t == "", strings.Contains(t, "BLOB"):
		return AffinityBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return AffinityReal
	default:
		return AffinityNumeric
	}
}

// Column is one column as PRAGMA table_info reports it.
type Column struct {
	Name    string
	Type    string
	NotNull bool
	// PrimaryKeyPosition is the 1-based position in the primary key, 0 if
	// the column is not part of it.
	PrimaryKeyPosition int
}

// Equal compares columns by name, affinity, nullability and key position.
func (c Column) Equal(o Column) bool {
	return c.Name == o.Name &&
		c.NotNull == o.NotNull &&
		c.PrimaryKeyPosition == o.PrimaryKeyPosition &&
		AffinityOf(c.Type) == AffinityOf(o.Type)
}

func (c Column) String() string {
	return fmt.Sprintf("Column{name=%q, type=%q, affinity=%s, notNull=%t, primaryKeyPosition=%d}",
		c.Name, c.Type, AffinityOf(c.Type), c.NotNull, c.PrimaryKeyPosition)
}

// ForeignKey is one foreign key constraint of a table.
type ForeignKey struct {
	ReferenceTable       string
	OnDelete             string
	OnUpdate             string
	ColumnNames          []string
	ReferenceColumnNames []string
}

// Equal compares every field; column lists are order sensitive.
func (f ForeignKey) Equal(o ForeignKey) bool {
	return f.ReferenceTable == o.ReferenceTable &&
		strings.EqualFold(f.OnDelete, o.OnDelete) &&
		strings.EqualFold(f.OnUpdate, o.OnUpdate) &&
		slices.Equal(f.ColumnNames, o.ColumnNames) &&
		slices.Equal(f.ReferenceColumnNames, o.ReferenceColumnNames)
}

func (f ForeignKey) String() string {
	return fmt.Sprintf("ForeignKey{referenceTable=%q, onDelete=%q, onUpdate=%q, columnNames=%v, referenceColumnNames=%v}",
		f.ReferenceTable, f.OnDelete, f.OnUpdate, f.ColumnNames, f.ReferenceColumnNames)
}

// Index is one explicitly created index of a table.
type Index struct {
	Name    string
	Unique  bool
	Columns []string
}

// Equal compares name, uniqueness and columns in order.
func (i Index) Equal(o Index) bool {
	return i.Name == o.Name && i.Unique == o.Unique && slices.Equal(i.Columns, o.Columns)
}

func (i Index) String() string {
	return fmt.Sprintf("Index{name=%q, unique=%t, columns=%v}", i.Name, i.Unique, i.Columns)
}

// TableInfo is the shape of one table: columns, foreign keys and indices.
type TableInfo struct {
	Name        string
	Columns     map[string]Column
	ForeignKeys []ForeignKey
	// Indices is nil when indices are not compared.
	Indices []Index
}

// Equal reports whether two tables have the same shape. Foreign keys and
// indices are compared as sets. Indices are skipped when either side is nil.
func (t TableInfo) Equal(o TableInfo) bool {
	if t.Name != o.Name || len(t.Columns) != len(o.Columns) {
		return false
	}
	for name, c := range t.Columns {
		oc, ok := o.Columns[name]
		if !ok || !c.Equal(oc) {
			return false
		}
	}
	if !sameSet(t.ForeignKeys, o.ForeignKeys, ForeignKey.Equal) {
		return false
	}
	if t.Indices == nil || o.Indices == nil {
		return true
	}
	return sameSet(t.Indices, o.Indices, Index.Equal)
}

func (t TableInfo) String() string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "TableInfo{name=%q, columns={", t.Name)
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.Columns[name].String())
	}
	fmt.Fprintf(&sb, "}, foreignKeys=%v, indices=%v}", t.ForeignKeys, t.Indices)
	return sb.String()
}

// ReadTableInfo reads the shape of table from the database. A missing table
// yields a TableInfo with no columns.
func ReadTableInfo(ctx context.Context, db Conn, table string) (TableInfo, error) {
	columns, err := readColumns(ctx, db, table)
	if err != nil {
		return TableInfo{}, err
	}
	foreignKeys, err := readForeignKeys(ctx, db, table)
	if err != nil {
		return TableInfo{}, err
	}
	indices, err := readIndices(ctx, db, table)
	if err != nil {
		return TableInfo{}, err
	}
	return TableInfo{Name: table, Columns: columns, ForeignKeys: foreignKeys, Indices: indices}, nil
}

func readColumns(ctx context.Context, db Conn, table string) (map[string]Column, error) {
	rows, err := queryRows(ctx, db, "PRAGMA table_info("+quoteIdentifier(table)+")")
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	columns := make(map[string]Column, len(rows))
	for _, r := range rows {
		c := Column{
			Name:               asString(r["name"]),
			Type:               asString(r["type"]),
			NotNull:            asInt(r["notnull"]) != 0,
			PrimaryKeyPosition: asInt(r["pk"]),
		}
		columns[c.Name] = c
	}
	return columns, nil
}

func readForeignKeys(ctx context.Context, db Conn, table string) ([]ForeignKey, error) {
	rows, err := queryRows(ctx, db, "PRAGMA foreign_key_list("+quoteIdentifier(table)+")")
	if err != nil {
		return nil, fmt.Errorf("reading foreign keys of %s: %w", table, err)
	}

	// Rows are one per column, grouped by id and ordered by seq.
	sort.SliceStable(rows, func(i, j int) bool {
		if a, b := asInt(rows[i]["id"]), asInt(rows[j]["id"]); a != b {
			return a < b
		}
		return asInt(rows[i]["seq"]) < asInt(rows[j]["seq"])
	})

	var keys []ForeignKey
	lastID := -1
	for _, r := range rows {
		id := asInt(r["id"])
		if id != lastID || len(keys) == 0 {
			keys = append(keys, ForeignKey{
				ReferenceTable: asString(r["table"]),
				OnDelete:       asString(r["on_delete"]),
				OnUpdate:       asString(r["on_update"]),
			})
			lastID = id
		}
		fk := &keys[len(keys)-1]
		fk.ColumnNames = append(fk.ColumnNames, asString(r["from"]))
		fk.ReferenceColumnNames = append(fk.ReferenceColumnNames, asString(r["to"]))
	}
	return keys, nil
}

func readIndices(ctx context.Context, db Conn, table string) ([]Index, error) {
	rows, err := queryRows(ctx, db, "PRAGMA index_list("+quoteIdentifier(table)+")")
	if err != nil {
		return nil, fmt.Errorf("reading indices of %s: %w", table, err)
	}

	indices := make([]Index, 0, len(rows))
	for _, r := range rows {
		name := asString(r["name"])
		if origin, ok := r["origin"]; ok {
			// Only indices created with CREATE INDEX; "pk" and "u" are implicit.
			if asString(origin) != "c" {
				continue
			}
		} else if strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}

		infoRows, err := queryRows(ctx, db, "PRAGMA index_info("+quoteIdentifier(name)+")")
		if err != nil {
			return nil, fmt.Errorf("reading index %s: %w", name, err)
		}
		sort.SliceStable(infoRows, func(i, j int) bool {
			return asInt(infoRows[i]["seqno"]) < asInt(infoRows[j]["seqno"])
		})
		idx := Index{Name: name, Unique: asInt(r["unique"]) != 0}
		for _, ir := range infoRows {
			idx.Columns = append(idx.Columns, asString(ir["name"]))
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// queryRows runs a query and returns every row keyed by column name. Rows
// are fully read and closed before returning, so the single connection is
// free for the next statement.
func queryRows(ctx context.Context, db Conn, query string, args ...any) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func asInt(v any) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case float64:
		return int(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string, []byte:
		n, _ := strconv.Atoi(asString(x))
		return n
	default:
		return 0
	}
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// sameSet reports whether a and b contain the same elements, ignoring order.
func sameSet[T any](a, b []T, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for j, y := range b {
			if !used[j] && eq(x, y) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
