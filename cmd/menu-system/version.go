package main

import (
	"fmt"
	"strings"

	menusystem "github.com/Mause/menu-system"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of menu-system",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "menu-system version %s\n", strings.TrimSpace(menusystem.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
