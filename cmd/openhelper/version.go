package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/openhelper/internal/sqlite"
	"github.com/pthm/openhelper/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
		if verbose > 0 {
			info := sqlite.GetInfo()
			fmt.Printf("sqlite driver: %s (%s, %s)\n", info.Package, info.DriverName, info.DriverType)
		}
	},
}
