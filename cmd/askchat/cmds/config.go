package cmds

import (
	"github.com/go-go-golems/askchat/pkg/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type configView struct {
	config.Settings `yaml:",inline"`
	AskURL          string `yaml:"ask-url"`
	Ready           bool   `yaml:"api-key-present"`
}

func NewConfigCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, err := app.Settings.Endpoint()
			if err != nil {
				return err
			}
			view := configView{
				Settings: app.Settings.Redacted(),
				AskURL:   endpoint.AskURL(),
				Ready:    app.Settings.Ready(),
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(view); err != nil {
				return errors.Wrap(err, "could not encode configuration")
			}
			return enc.Close()
		},
	}
}
