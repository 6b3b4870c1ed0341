package cmds

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the askchat command tree. Running askchat without a
// subcommand starts a chat.
func NewRootCommand() *cobra.Command {
	app := NewApp()

	chatCmd := NewChatCommand(app)
	rootCmd := &cobra.Command{
		Use:           "askchat",
		Short:         "askchat is a terminal chat client for a question-answering service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Init(cmd)
		},
		RunE: chatCmd.RunE,
	}
	app.AddFlags(rootCmd)

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(NewAskCommand(app))
	rootCmd.AddCommand(NewConfigCommand(app))
	return rootCmd
}
