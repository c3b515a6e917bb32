package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd returns the jokebot command tree. Running it without a
// subcommand serves the webhook.
func NewRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:           "jokebot",
		Short:         "Dialogflow fulfillment webhook that tells jokes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, newDetectCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
