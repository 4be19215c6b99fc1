package helper_test

import (
	"context"

	"github.com/pthm/openhelper/helper"
	"github.com/pthm/openhelper/internal/sqlite"
)

const (
	noteIdentityHash       = "5b1a8f9c0d2e4f6a8b0c1d2e3f4a5b6c7d8e9f0a1b2c3d4e5f6a7b8c9d0e1f2a"
	noteLegacyIdentityHash = "legacy-0f1e2d3c4b5a69788796a5b4c3d2e1f0"
)

var noteTables = []string{"notebook", "note"}

// noteDelegate is shaped like generated code for a notebook/note schema.
type noteDelegate struct {
	helper.DelegateBase
	database *helper.Database
}

func (d *noteDelegate) CreateAllTables(ctx context.Context, db helper.Conn) error {
	for _, q := range []string{
		"CREATE TABLE IF NOT EXISTS `notebook` (`id` INTEGER NOT NULL, `name` TEXT NOT NULL, PRIMARY KEY(`id`))",
		"CREATE TABLE IF NOT EXISTS `note` (`id` INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL, `notebook_id` INTEGER NOT NULL, `title` TEXT, " +
			"FOREIGN KEY(`notebook_id`) REFERENCES `notebook`(`id`) ON UPDATE NO ACTION ON DELETE CASCADE)",
		"CREATE INDEX IF NOT EXISTS `index_note_notebook_id` ON `note` (`notebook_id`)",
	} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (d *noteDelegate) DropAllTables(ctx context.Context, db helper.Conn) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS `notebook`"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS `note`"); err != nil {
		return err
	}
	return nil
}

func (d *noteDelegate) OnCreate(ctx context.Context, db helper.Conn) error {
	d.database.Attach(db)
	if len(d.database.Callbacks) > 0 {
		for _, _callback := range d.database.Callbacks {
			if err := _callback.OnCreate(ctx, db); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *noteDelegate) OnOpen(ctx context.Context, db helper.Conn) error {
	d.database.Attach(db)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	if err := d.database.InitInvalidationTracker(ctx, db); err != nil {
		return err
	}
	if len(d.database.Callbacks) > 0 {
		for _, _callback := range d.database.Callbacks {
			if err := _callback.OnOpen(ctx, db); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *noteDelegate) ValidateMigration(ctx context.Context, db helper.Conn) error {
	for _, expected := range []helper.TableInfo{notebookInfo(), noteInfo()} {
		existing, err := helper.ReadTableInfo(ctx, db, expected.Name)
		if err != nil {
			return err
		}
		if !expected.Equal(existing) {
			return &helper.SchemaMismatchError{Table: expected.Name, Expected: expected, Found: existing}
		}
	}
	return nil
}

func notebookInfo() helper.TableInfo {
	return helper.TableInfo{
		Name: "notebook",
		Columns: map[string]helper.Column{
			"id":   {Name: "id", Type: "INTEGER", NotNull: true, PrimaryKeyPosition: 1},
			"name": {Name: "name", Type: "TEXT", NotNull: true},
		},
		ForeignKeys: []helper.ForeignKey{},
		Indices:     []helper.Index{},
	}
}

func noteInfo() helper.TableInfo {
	return helper.TableInfo{
		Name: "note",
		Columns: map[string]helper.Column{
			"id":          {Name: "id", Type: "INTEGER", NotNull: true, PrimaryKeyPosition: 1},
			"notebook_id": {Name: "notebook_id", Type: "INTEGER", NotNull: true},
			"title":       {Name: "title", Type: "TEXT"},
		},
		ForeignKeys: []helper.ForeignKey{{
			ReferenceTable:       "notebook",
			OnDelete:             "CASCADE",
			OnUpdate:             "NO ACTION",
			ColumnNames:          []string{"notebook_id"},
			ReferenceColumnNames: []string{"id"},
		}},
		Indices: []helper.Index{{Name: "index_note_notebook_id", Columns: []string{"notebook_id"}}},
	}
}

func newNoteOpenHelper(db *helper.Database, configuration *helper.DatabaseConfiguration) helper.OpenHelper {
	_openCallback := helper.NewLifecycleCallback(configuration, &noteDelegate{
		DelegateBase: helper.DelegateBase{SchemaVersion: noteSchemaVersion},
		database:     db,
	}, noteIdentityHash, noteLegacyIdentityHash)
	_sqliteConfig := helper.NewConfigurationBuilder(configuration.Dir).Name(configuration.Name).Callback(_openCallback).Build()
	_helper := configuration.OpenHelperFactory.Create(_sqliteConfig)
	return _helper
}

// noteSchemaVersion is a variable so tests can simulate a version bump.
var noteSchemaVersion = 1

func newNoteDatabase(configuration *helper.DatabaseConfiguration) (*helper.Database, error) {
	return helper.NewDatabase(configuration, noteTables, newNoteOpenHelper)
}

func noteConfig(dir string, callbacks ...helper.Callback) *helper.DatabaseConfiguration {
	return &helper.DatabaseConfiguration{
		Dir:               dir,
		Name:              "notes.db",
		OpenHelperFactory: sqlite.Factory(),
		Callbacks:         callbacks,
	}
}
