package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	menusystem "github.com/Mause/menu-system"
	"github.com/Mause/menu-system/internal/adapters/memory"
	"github.com/Mause/menu-system/internal/dialog"
	"github.com/Mause/menu-system/internal/logging"
	"github.com/Mause/menu-system/pkg/continuation"
	"github.com/Mause/menu-system/pkg/domain"
	"github.com/Mause/menu-system/pkg/twiml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var renderCmd = &cobra.Command{
	Use:   "render <endpoint>",
	Short: "Print the document a callback would receive",
	Long: `Runs one dialog turn without a server and prints the TwiML document.
The endpoint is a callback path with its continuation query, as found in a gather action,
for example "/location/mode?origin=-34.2411%2C150.6966&v=1".`,
	Example: `  menu-system render /location
  menu-system render /location/id_received?v=1 --digits 987654321 --payphones phones.yaml
  menu-system render /message --from +61400000000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		target, err := url.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
		state, ok := domain.StateForPath(target.Path)
		if !ok {
			return fmt.Errorf("no dialog state is served at %q", target.Path)
		}
		params, err := continuation.Decode(target.Query())
		if err != nil {
			return err
		}

		opts := []menusystem.Option{menusystem.WithLogger(logging.NewNop())}
		if path, _ := cmd.Flags().GetString("payphones"); path != "" {
			phones, err := readPayphones(path)
			if err != nil {
				return err
			}
			opts = append(opts, menusystem.WithLocator(memory.NewLocator(phones...)))
		}
		app, err := menusystem.New(cfg, opts...)
		if err != nil {
			return err
		}
		defer app.Close()

		digits, _ := cmd.Flags().GetString("digits")
		from, _ := cmd.Flags().GetString("from")
		decision, err := app.Machine().Handle(cmd.Context(), state, dialog.Turn{
			Digits: digits,
			Caller: from,
			CallID: "render",
			Params: params,
		})
		res := decision.Response
		if err != nil {
			res = app.Machine().Fallback()
		}

		body, renderErr := res.Render()
		if renderErr != nil {
			return renderErr
		}
		if _, perr := twiml.Parse(body); perr != nil {
			return fmt.Errorf("rendered document does not parse: %w", perr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(body))

		if decision.Outcome != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "outcome: %v\n", decision.Outcome)
		}
		if err != nil {
			return fmt.Errorf("turn failed, fallback shown: %w", err)
		}
		return nil
	},
}

type payphoneFixture struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"lat"`
	Longitude float64 `yaml:"lng"`
}

// readPayphones loads a YAML list of payphones used instead of the feature service.
func readPayphones(path string) ([]domain.Payphone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payphones: %w", err)
	}
	var fixtures []payphoneFixture
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse payphones: %w", err)
	}
	if len(fixtures) == 0 {
		return nil, errors.New("payphones file is empty")
	}
	phones := make([]domain.Payphone, 0, len(fixtures))
	for _, f := range fixtures {
		phones = append(phones, domain.Payphone(f))
	}
	return phones, nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("digits", "d", "", "Digits entered by the caller")
	renderCmd.Flags().String("from", "", "Caller identity, as sent in the From field")
	renderCmd.Flags().String("payphones", "", "YAML list of payphones to look up instead of the feature service")
}
