package cmds

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/go-go-golems/askchat/pkg/conversation"
	"github.com/go-go-golems/askchat/pkg/render"
	"github.com/go-go-golems/askchat/pkg/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewAskCommand(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask [QUESTION...]",
		Short: "Ask a single question and print the answer",
		Long: `Ask a single question and print the answer.

The question is the arguments joined by spaces, or stdin when no arguments
are given. The command exits with status 1 when the question fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if len(args) == 0 {
				if isTerminal(cmd.InOrStdin()) {
					return errors.New("no question given")
				}
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, "could not read question from stdin")
				}
				question = string(b)
			}
			if _, ok := session.Normalize(question); !ok {
				return errors.New("no question given")
			}

			client, err := app.NewClient(printExchange(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			_, outcome := session.Submit(ctx, client, conversation.New(app.Settings.MaxTurns), question)
			if outcome.Notice != nil {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), outcome.Notice.Text)
				return &ExitError{Code: 1}
			}

			text := outcome.Answer.Text
			if !raw {
				if md, err := render.NewMarkdown("", render.TerminalWidth()); err == nil {
					text = md.Render(text)
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the answer without markdown rendering")
	return cmd
}
