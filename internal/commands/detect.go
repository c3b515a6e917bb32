package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jokebot/internal/agent"
	"jokebot/internal/config"
	"jokebot/internal/fulfillment"
)

func newDetectCmd() *cobra.Command {
	var (
		sessionID string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "detect <text>...",
		Short: "Send a text query to the agent and print its fulfillment",
		Long: "Sends one text query to the configured Dialogflow agent and prints the\n" +
			"matched intent and the fulfillment messages returned by the webhook.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DialogflowProjectID == "" {
				return errors.New("DIALOGFLOW_PROJECT_ID is not set")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, err := agent.New(ctx, cfg.DialogflowProjectID, cfg.DialogflowLanguage, clientOptions(cfg)...)
			if err != nil {
				return err
			}
			defer client.Close()

			qr, err := client.DetectText(ctx, sessionID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "intent: %s (confidence %.2f)\n", qr.GetIntent().GetDisplayName(), qr.GetIntentDetectionConfidence())
			for _, line := range fulfillment.Render(fulfillment.MessagesFromProto(qr.GetFulfillmentMessages())) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id to continue (default: new session)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	return cmd
}
