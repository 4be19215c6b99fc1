package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pthm/openhelper/internal/cli"
	"github.com/pthm/openhelper/pkg/generator"
)

var (
	genSchema        string
	genOutput        string
	genPackage       string
	genFile          string
	genRuntimeImport string
	genChunkSize     int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate lifecycle code",
	Long: `Generate the lifecycle controller for a schema: the delegate that creates,
drops and validates every table, the open helper wiring and the exported
constructor.`,
	Example: `  # Generate into a package directory
  openhelper generate --schema schema/notes.yaml --output internal/store --package store

  # Print to stdout
  openhelper generate --schema schema/notes.yaml --output -

  # Smaller validation methods
  openhelper generate --schema schema/notes.yaml --chunk-size 200`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaPath := resolveString(genSchema, cfg.Schema)
		output := resolveString(genOutput, cfg.Generate.Output, ".")
		pkg := resolveString(genPackage, cfg.Generate.Package, "db")

		genCfg := generator.DefaultConfig()
		genCfg.Package = pkg
		genCfg.RuntimeImport = resolveString(genRuntimeImport, cfg.Generate.RuntimeImport, genCfg.RuntimeImport)
		genCfg.ChunkSize = resolveInt(genChunkSize, cfg.Generate.ChunkSize, generator.ValidateChunkSize)
		genCfg.Source = filepath.ToSlash(schemaPath)

		fileName := resolveString(genFile, cfg.Generate.File, pkg+"_gen.go")
		return runGenerate(schemaPath, output, fileName, genCfg)
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genSchema, "schema", "", "path to the schema YAML file")
	f.StringVar(&genOutput, "output", "", `output directory, "-" for stdout (default: .)`)
	f.StringVar(&genPackage, "package", "", "package name of the generated file (default: db)")
	f.StringVar(&genFile, "file", "", "generated file name (default: <package>_gen.go)")
	f.StringVar(&genRuntimeImport, "runtime-import", "", "import path of the helper runtime")
	f.IntVar(&genChunkSize, "chunk-size", 0, "maximum statements per validation method (default: 1000)")
}

func runGenerate(schemaPath, output, fileName string, genCfg *generator.Config) error {
	db, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := generator.GenerateGo(&buf, db, genCfg); err != nil {
		return cli.GeneralError("generation failed", err)
	}

	if output == "-" {
		if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
			return cli.GeneralError("writing to stdout", err)
		}
		return nil
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return cli.GeneralError("creating output directory", err)
	}
	outPath := filepath.Join(output, fileName)
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return cli.GeneralError(fmt.Sprintf("writing %s", outPath), err)
	}
	if !quiet {
		fmt.Printf("Generated %s (%s, version %d, %d tables)\n", outPath, db.Name, db.Version, len(db.Entities))
	}
	return nil
}
