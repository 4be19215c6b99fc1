package schema_test

import (
	"strings"
	"testing"

	"github.com/pthm/openhelper/pkg/schema"
)

func validDatabase() *schema.Database {
	return &schema.Database{
		Name:    "ShopDatabase",
		Version: 1,
		Entities: []schema.Entity{
			{
				TableName: "customer",
				Fields: []schema.Field{
					{Name: "id", Type: "INTEGER", NotNull: true},
					{Name: "email", Type: "TEXT", NotNull: true},
				},
				PrimaryKey: schema.PrimaryKey{Columns: []string{"id"}, AutoGenerate: true},
				Indices:    []schema.Index{{Name: "index_customer_email", Columns: []string{"email"}, Unique: true}},
			},
			{
				TableName: "purchase",
				Fields: []schema.Field{
					{Name: "id", Type: "INTEGER", NotNull: true},
					{Name: "customer_id", Type: "INTEGER"},
				},
				PrimaryKey: schema.PrimaryKey{Columns: []string{"id"}},
				ForeignKeys: []schema.ForeignKey{{
					ParentTable:   "customer",
					ParentColumns: []string{"id"},
					ChildColumns:  []string{"customer_id"},
					OnDelete:      "cascade",
				}},
			},
		},
	}
}

func TestComplete(t *testing.T) {
	db := validDatabase()
	if err := db.Complete(); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	for _, e := range db.Entities {
		if e.CreateTableStatement == "" {
			t.Errorf("table %s: CreateTableStatement not derived", e.TableName)
		}
	}
	if len(db.IdentityHash) != 64 {
		t.Errorf("IdentityHash = %q, want 64 hex chars", db.IdentityHash)
	}
	if len(db.LegacyIdentityHash) != 64 {
		t.Errorf("LegacyIdentityHash = %q, want 64 hex chars", db.LegacyIdentityHash)
	}
	if db.IdentityHash == db.LegacyIdentityHash {
		t.Error("current and legacy digests should differ")
	}
}

func TestComplete_KeepsProvidedValues(t *testing.T) {
	db := validDatabase()
	db.Entities[0].CreateTableStatement = "CREATE TABLE IF NOT EXISTS `customer` (`id` INTEGER PRIMARY KEY, `email` TEXT NOT NULL)"
	db.IdentityHash = "aaaa"
	db.LegacyIdentityHash = "bbbb"

	if err := db.Complete(); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !strings.HasPrefix(db.Entities[0].CreateTableStatement, "CREATE TABLE IF NOT EXISTS `customer` (`id` INTEGER PRIMARY KEY,") {
		t.Errorf("provided statement overwritten: %s", db.Entities[0].CreateTableStatement)
	}
	if db.IdentityHash != "aaaa" || db.LegacyIdentityHash != "bbbb" {
		t.Errorf("provided digests overwritten: %s / %s", db.IdentityHash, db.LegacyIdentityHash)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(db *schema.Database)
		want   []string // substrings expected in the error
	}{
		{
			name:   "missing name",
			mutate: func(db *schema.Database) { db.Name = "" },
			want:   []string{"database name is required"},
		},
		{
			name:   "name not an identifier",
			mutate: func(db *schema.Database) { db.Name = "shop-db" },
			want:   []string{`database name "shop-db" is not a valid Go identifier`},
		},
		{
			name:   "version zero",
			mutate: func(db *schema.Database) { db.Version = 0 },
			want:   []string{"version must be >= 1, got 0"},
		},
		{
			name:   "same digests",
			mutate: func(db *schema.Database) { db.LegacyIdentityHash = db.IdentityHash },
			want:   []string{"identity hash and legacy identity hash must differ"},
		},
		{
			name: "duplicate table ignoring case",
			mutate: func(db *schema.Database) {
				dup := db.Entities[0]
				dup.TableName = "Customer"
				db.Entities = append(db.Entities, dup)
			},
			want: []string{`duplicate table "Customer"`},
		},
		{
			name:   "duplicate column",
			mutate: func(db *schema.Database) { db.Entities[0].Fields[1].Name = "ID" },
			want:   []string{`table "customer": duplicate column "ID"`},
		},
		{
			name:   "no primary key",
			mutate: func(db *schema.Database) { db.Entities[1].PrimaryKey.Columns = nil },
			want:   []string{`table "purchase": primary key is required`},
		},
		{
			name: "auto generate on text key",
			mutate: func(db *schema.Database) {
				db.Entities[0].Fields[0].Type = "TEXT"
			},
			want: []string{"auto_generate requires an INTEGER primary key"},
		},
		{
			name: "index on unknown column",
			mutate: func(db *schema.Database) {
				db.Entities[0].Indices[0].Columns = []string{"phone"}
			},
			want: []string{`index "index_customer_email" column "phone" not found`},
		},
		{
			name: "foreign key to unknown table",
			mutate: func(db *schema.Database) {
				db.Entities[1].ForeignKeys[0].ParentTable = "account"
			},
			want: []string{`foreign key parent table "account" not found`},
		},
		{
			name: "foreign key column count",
			mutate: func(db *schema.Database) {
				db.Entities[1].ForeignKeys[0].ParentColumns = []string{"id", "email"}
			},
			want: []string{"must map the same number of child and parent columns"},
		},
		{
			name: "unknown action",
			mutate: func(db *schema.Database) {
				db.Entities[1].ForeignKeys[0].OnUpdate = "explode"
			},
			want: []string{`unknown action "EXPLODE"`},
		},
		{
			name: "problems are joined",
			mutate: func(db *schema.Database) {
				db.Name = ""
				db.Version = -1
			},
			want: []string{"database name is required", "; version must be >= 1, got -1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := validDatabase()
			if err := db.Complete(); err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			tt.mutate(db)

			err := db.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !schema.IsInvalidSchemaErr(err) {
				t.Errorf("expected IsInvalidSchemaErr, got %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error should contain %q, got: %s", w, err)
				}
			}
		})
	}
}

func TestValidate_EmptySchemaIsValid(t *testing.T) {
	db := &schema.Database{Name: "EmptyDatabase", Version: 1}
	if err := db.Complete(); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestEntityHelpers(t *testing.T) {
	e := schema.Entity{
		TableName: "note_tag",
		Fields: []schema.Field{
			{Name: "note_id", Type: "INTEGER"},
			{Name: "tag_name", Type: "TEXT"},
			{Name: "added_at", Type: "INTEGER"},
		},
		PrimaryKey: schema.PrimaryKey{Columns: []string{"note_id", "tag_name"}},
	}

	if f, ok := e.Field("tag_name"); !ok || f.Type != "TEXT" {
		t.Errorf("Field(tag_name) = %+v, %v", f, ok)
	}
	if _, ok := e.Field("missing"); ok {
		t.Error("Field(missing) should not be found")
	}

	positions := map[string]int{"note_id": 1, "tag_name": 2, "added_at": 0}
	for col, want := range positions {
		if got := e.PrimaryKeyPosition(col); got != want {
			t.Errorf("PrimaryKeyPosition(%s) = %d, want %d", col, got, want)
		}
	}
}

func TestForeignKeyActions(t *testing.T) {
	var fk schema.ForeignKey
	if fk.OnDeleteAction() != schema.ActionNoAction || fk.OnUpdateAction() != schema.ActionNoAction {
		t.Error("empty actions should default to NO ACTION")
	}
	fk.OnDelete = "set null"
	fk.OnUpdate = "Cascade"
	if fk.OnDeleteAction() != schema.ActionSetNull {
		t.Errorf("OnDeleteAction() = %q", fk.OnDeleteAction())
	}
	if fk.OnUpdateAction() != schema.ActionCascade {
		t.Errorf("OnUpdateAction() = %q", fk.OnUpdateAction())
	}
}
