package main

import (
	"fmt"
	"sort"

	menusystem "github.com/Mause/menu-system"
	"github.com/Mause/menu-system/internal/logging"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration",
	Long:  `Loads the configuration file and environment, reports every problem and optionally checks the cache backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "listen:      %s\n", cfg.Listen)
		fmt.Fprintf(out, "base url:    %s\n", cfg.BaseURL)
		fmt.Fprintf(out, "destination: %s\n", cfg.Destination)
		fmt.Fprintf(out, "cache:       %s\n", cfg.Cache.Backend)
		fmt.Fprintf(out, "directions:  %s\n", configured(cfg.Directions.APIKey != ""))
		fmt.Fprintf(out, "signatures:  %s\n", configured(cfg.Twilio.VerifySignatures))

		callers := make([]string, 0, len(cfg.Callers))
		for id := range cfg.Callers {
			callers = append(callers, id)
		}
		sort.Strings(callers)
		for _, id := range callers {
			fmt.Fprintf(out, "caller %s: %d message(s)\n", id, len(cfg.Callers[id].Messages))
		}

		if ping, _ := cmd.Flags().GetBool("ping"); ping {
			app, err := menusystem.New(cfg, menusystem.WithLogger(logging.NewNop()))
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "cache reachable")
		}

		fmt.Fprintln(out, "Configuration is valid")
		return nil
	},
}

func configured(ok bool) string {
	if ok {
		return "enabled"
	}
	return "disabled"
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("ping", false, "Also connect to the cache backend")
}
