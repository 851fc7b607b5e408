package main

import (
	"fmt"
	"os"

	"github.com/Mause/menu-system/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "menu-system",
	Short: "menu-system is a telephone dialog server",
	Long: `menu-system answers voice platform callbacks with TwiML documents.
It guides callers from a payphone to a fixed destination and plays passcode-gated messages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default "+config.DefaultPath+")")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, os.Environ())
}
