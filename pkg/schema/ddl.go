package schema

import "strings"

// QuoteIdentifier quotes a table, column or index name with backticks,
// doubling any backtick inside the name.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

// CreateTableQuery renders the CREATE TABLE statement for an entity.
//
// A single auto-generated INTEGER key is rendered inline as
// INTEGER PRIMARY KEY AUTOINCREMENT; every other key becomes a PRIMARY KEY
// table constraint. Foreign keys always spell out both actions so the text
// matches what PRAGMA foreign_key_list reports.
func CreateTableQuery(e Entity) string {
	inlinePK := e.PrimaryKey.AutoGenerate && len(e.PrimaryKey.Columns) == 1

	defs := make([]string, 0, len(e.Fields)+len(e.ForeignKeys)+1)
	for _, f := range e.Fields {
		var sb strings.Builder
		sb.WriteString(QuoteIdentifier(f.Name))
		if f.Type != "" {
			sb.WriteString(" ")
			sb.WriteString(strings.ToUpper(f.Type))
		}
		if inlinePK && f.Name == e.PrimaryKey.Columns[0] {
			sb.WriteString(" PRIMARY KEY AUTOINCREMENT")
		}
		if f.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if f.Default != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(f.Default)
		}
		defs = append(defs, sb.String())
	}

	if !inlinePK && len(e.PrimaryKey.Columns) > 0 {
		defs = append(defs, "PRIMARY KEY("+quoteList(e.PrimaryKey.Columns)+")")
	}

	for _, fk := range e.ForeignKeys {
		var sb strings.Builder
		sb.WriteString("FOREIGN KEY(")
		sb.WriteString(quoteList(fk.ChildColumns))
		sb.WriteString(") REFERENCES ")
		sb.WriteString(QuoteIdentifier(fk.ParentTable))
		sb.WriteString("(")
		sb.WriteString(quoteList(fk.ParentColumns))
		sb.WriteString(") ON UPDATE ")
		sb.WriteString(fk.OnUpdateAction())
		sb.WriteString(" ON DELETE ")
		sb.WriteString(fk.OnDeleteAction())
		if fk.Deferred {
			sb.WriteString(" DEFERRABLE INITIALLY DEFERRED")
		}
		defs = append(defs, sb.String())
	}

	return "CREATE TABLE IF NOT EXISTS " + QuoteIdentifier(e.TableName) + " (" + strings.Join(defs, ", ") + ")"
}

// CreateIndexQuery renders the CREATE INDEX statement for an index of table.
func CreateIndexQuery(table string, idx Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return "CREATE " + unique + "INDEX IF NOT EXISTS " + QuoteIdentifier(idx.Name) +
		" ON " + QuoteIdentifier(table) + " (" + quoteList(idx.Columns) + ")"
}

// DropTableQuery renders the DROP TABLE IF EXISTS statement for an entity.
func DropTableQuery(e Entity) string {
	return "DROP TABLE IF EXISTS " + QuoteIdentifier(e.TableName)
}

// BuildCreateQueries returns every statement needed to create the schema on an
// empty database: for each entity in declaration order, its CREATE TABLE
// followed by its CREATE INDEX statements.
func (d *Database) BuildCreateQueries() []string {
	var queries []string
	for _, e := range d.Entities {
		queries = append(queries, e.CreateTableStatement)
		for _, idx := range e.Indices {
			queries = append(queries, CreateIndexQuery(e.TableName, idx))
		}
	}
	return queries
}
