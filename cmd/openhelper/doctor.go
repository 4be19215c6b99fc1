package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/openhelper/internal/cli"
	"github.com/pthm/openhelper/internal/doctor"
	"github.com/pthm/openhelper/internal/sqlite"
)

var (
	doctorDB     string
	doctorSchema string
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long:  `Check a database file against the schema: version, identity, table shapes and foreign key integrity.`,
	Example: `  # Run health checks
  openhelper doctor --db data/notes.db --schema schema/notes.yaml

  # Run with verbose output
  openhelper doctor --db data/notes.db -v`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaPath := resolveString(doctorSchema, cfg.Schema)
		verboseFlag := verbose > 0 || cfg.Doctor.Verbose

		cfg.Database.Path = resolveString(doctorDB, cfg.Database.Path)
		dbPath, err := cfg.DatabasePath()
		if err != nil {
			return cli.ConfigError("resolving database", err)
		}

		return runDoctor(dbPath, schemaPath, verboseFlag)
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "path to the SQLite database file")
	f.StringVar(&doctorSchema, "schema", "", "path to the schema YAML file")
}

func runDoctor(dbPath, schemaPath string, verboseFlag bool) error {
	model, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dbPath); err != nil {
		return cli.DBConnectError("opening database", err)
	}
	db, err := sqlite.OpenReadOnly(dbPath)
	if err != nil {
		return cli.DBConnectError("opening database", err)
	}
	defer func() { _ = db.Close() }()

	if !quiet {
		fmt.Println("openhelper doctor - Health Check")
	}

	report, err := doctor.New(db, model).Run(context.Background())
	if err != nil {
		return cli.GeneralError("running doctor", err)
	}

	report.Print(os.Stdout, verboseFlag)

	if report.HasErrors() {
		return cli.GeneralError("health checks failed", nil)
	}
	return nil
}
