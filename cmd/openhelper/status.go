package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pthm/openhelper/helper"
	"github.com/pthm/openhelper/internal/cli"
	"github.com/pthm/openhelper/internal/sqlite"
)

var (
	statusDB     string
	statusSchema string
)

var labelStyle = lipgloss.NewStyle().Bold(true).Width(14)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the lifecycle state of a database file",
	Long: `Show the stored schema version, the recorded identity hash and the tables
of a database file. With a schema, the identity is compared against it.`,
	Example: `  # Check a database file
  openhelper status --db data/notes.db

  # Compare against the schema
  openhelper status --db data/notes.db --schema schema/notes.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Database.Path = resolveString(statusDB, cfg.Database.Path)
		dbPath, err := cfg.DatabasePath()
		if err != nil {
			return cli.ConfigError("resolving database", err)
		}
		return runStatus(dbPath, resolveString(statusSchema, cfg.Schema))
	},
}

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusDB, "db", "", "path to the SQLite database file")
	f.StringVar(&statusSchema, "schema", "", "path to the schema YAML file")
}

func runStatus(dbPath, schemaPath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		return cli.DBConnectError("opening database", err)
	}
	db, err := sqlite.OpenReadOnly(dbPath)
	if err != nil {
		return cli.DBConnectError("opening database", err)
	}
	defer func() { _ = db.Close() }()

	s, err := helper.ReadStatus(context.Background(), db)
	if err != nil {
		return cli.DBConnectError("reading status", err)
	}

	row := func(label, value string) {
		fmt.Println(labelStyle.Render(label) + value)
	}

	row("Database:", dbPath)
	if s.UserVersion == 0 {
		row("Version:", "0 (not created)")
	} else {
		row("Version:", fmt.Sprint(s.UserVersion))
	}
	if s.HasMasterTable {
		row("Identity:", s.IdentityHash)
	} else {
		row("Identity:", "(not recorded)")
	}
	row("Tables:", fmt.Sprintf("%d %s", len(s.Tables), strings.Join(s.Tables, ", ")))

	// The schema is optional here; a missing file just skips the comparison.
	if schemaPath == "" {
		return nil
	}
	if _, err := os.Stat(schemaPath); err != nil {
		return nil
	}
	model, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}

	switch {
	case !s.HasMasterTable:
		row("Schema:", "identity will be recorded on the next open")
	case s.IdentityHash == model.IdentityHash:
		row("Schema:", fmt.Sprintf("matches %s version %d", model.Name, model.Version))
	case s.IdentityHash == model.LegacyIdentityHash:
		row("Schema:", fmt.Sprintf("matches %s version %d (legacy identity)", model.Name, model.Version))
	default:
		row("Schema:", fmt.Sprintf("does not match %s; run 'openhelper doctor' for details", model.Name))
	}
	if s.UserVersion != 0 && s.UserVersion != model.Version {
		row("", fmt.Sprintf("schema expects version %d", model.Version))
	}
	return nil
}
