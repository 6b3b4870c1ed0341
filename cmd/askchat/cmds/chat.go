package cmds

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/askchat/pkg/answer"
	"github.com/go-go-golems/askchat/pkg/render"
	"github.com/go-go-golems/askchat/pkg/repl"
	"github.com/go-go-golems/askchat/pkg/ui"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewChatCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation.

On a terminal this opens the full-screen interface. When stdin or stdout is
not a terminal, or with --plain, questions are read one per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout())
			if app.Settings.Plain || !interactive {
				return runLineMode(cmd, app)
			}
			return runTUI(cmd, app)
		},
	}
}

func runTUI(cmd *cobra.Command, app *App) error {
	var program *tea.Program
	client, err := app.NewClient(func(ex answer.Exchange) {
		if program != nil {
			program.Send(ui.ExchangeMsg(ex))
		}
	})
	if err != nil {
		return err
	}

	logger := app.Logger
	model := ui.NewModel(ui.Options{
		Asker:    client,
		Endpoint: client.Endpoint().AskURL(),
		Ready:    app.Settings.Ready(),
		Debug:    app.Settings.Debug,
		MaxTurns: app.Settings.MaxTurns,
		Context:  cmd.Context(),
		Logger:   &logger,
	})

	program = tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := program.Run(); err != nil {
		return errors.Wrap(err, "error running program")
	}
	return nil
}

func runLineMode(cmd *cobra.Command, app *App) error {
	client, err := app.NewClient(printExchange(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	md, err := render.NewMarkdown("", render.TerminalWidth())
	if err != nil {
		app.Logger.Warn().Err(err).Msg("markdown rendering disabled")
		md = nil
	}

	r := repl.New(client, repl.Options{
		In:          cmd.InOrStdin(),
		Out:         cmd.OutOrStdout(),
		Err:         cmd.ErrOrStderr(),
		MaxTurns:    app.Settings.MaxTurns,
		Markdown:    md,
		Interactive: isTerminal(cmd.InOrStdin()),
	})
	return r.Run(cmd.Context())
}

func isTerminal(r interface{}) bool {
	f, ok := r.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
