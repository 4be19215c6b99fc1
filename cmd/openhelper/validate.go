package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/openhelper/internal/gogen"
	"github.com/pthm/openhelper/internal/writer"
)

var (
	validateSchema    string
	validateChunkSize int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a schema and show its validation plan",
	Long: `Validate a schema file and print how table validation is split into
generated methods.`,
	Example: `  # Validate a specific schema file
  openhelper validate --schema schema/notes.yaml

  # Validate using config file settings
  openhelper validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaPath := resolveString(validateSchema, cfg.Schema)
		chunkSize := resolveInt(validateChunkSize, cfg.Generate.ChunkSize, writer.ValidateChunkSize)

		db, err := loadSchema(schemaPath)
		if err != nil {
			return err
		}
		if quiet {
			return nil
		}

		fmt.Printf("Schema is valid: %s version %d, %d tables\n", db.Name, db.Version, len(db.Entities))
		if verbose > 0 {
			fmt.Printf("  identity: %s\n", db.IdentityHash)
			fmt.Printf("  legacy:   %s\n", db.LegacyIdentityHash)
		}

		w := writer.NewOpenHelperWriter(db)
		w.ChunkSize = chunkSize
		chunks := w.ValidationPlan(gogen.NewScope())

		fmt.Printf("\nValidation plan (at most %d statements per method):\n", chunkSize)
		for i, chunk := range chunks {
			fmt.Printf("  %-22s %3d tables %5d statements\n",
				writer.ValidateMethodName(i), len(chunk.Validations), chunk.StatementCount())
			if verbose > 0 {
				fmt.Printf("    %s\n", strings.Join(chunk.TableNames(), ", "))
			}
		}
		return nil
	},
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateSchema, "schema", "", "path to the schema YAML file")
	f.IntVar(&validateChunkSize, "chunk-size", 0, "maximum statements per validation method (default: 1000)")
}
