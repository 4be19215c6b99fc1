package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/openhelper/internal/cli"
)

var configShowSource bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long: `Show the effective configuration after merging defaults, openhelper.yaml,
and OPENHELPER_* environment variables.

The output is valid openhelper.yaml. Keys:

  schema                   schema file read by generate, validate and doctor
  database.path            SQLite file inspected by status and doctor
  generate.output          output directory, "-" for stdout
  generate.package         package name of the generated file
  generate.file            generated file name (default <package>_gen.go)
  generate.runtime_import  import path of the helper runtime
  generate.chunk_size      statement ceiling per validation method (1000)
  doctor.verbose           always print check details

Nested keys map to environment variables with underscores, for example
OPENHELPER_GENERATE_CHUNK_SIZE=500.`,
	Example: `  # Show effective configuration
  openhelper config show

  # Check which file was picked up and the chunk size in effect
  OPENHELPER_GENERATE_CHUNK_SIZE=500 openhelper config show --source`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(os.Stdout, cfg, configPath, configShowSource)
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowSource, "source", false, "show config file source")
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(w io.Writer, c *cli.Config, path string, showSource bool) error {
	if showSource {
		source := path
		if source == "" {
			source = "(none, using defaults)"
		}
		_, _ = fmt.Fprintf(w, "# Config file: %s\n", source)
	}

	out, err := yaml.Marshal(c)
	if err != nil {
		return cli.GeneralError("encoding configuration", err)
	}
	_, err = w.Write(out)
	return err
}
