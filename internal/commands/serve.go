package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"jokebot/internal/config"
	"jokebot/internal/fulfillment"
	"jokebot/internal/jokeapi"
	"jokebot/internal/server"
	"jokebot/internal/voice"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the fulfillment webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := buildServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(cfg.Addr()) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Println("shutting down")
		return srv.Shutdown()
	}
}

// buildServer wires config into a ready server. Any failure here is a
// startup failure and stops the process.
func buildServer(ctx context.Context, cfg config.Config) (*server.Server, func(), error) {
	cleanup := func() {}

	bindings, err := config.LoadBindings(cfg.IntentsFile)
	if err != nil {
		return nil, cleanup, err
	}

	jokes := jokeapi.NewClient(cfg.JokeAPIURL, cfg.JokeAPITimeout)
	router := fulfillment.NewDispatcher(bindings, jokes)

	var opts []server.Option
	token, err := config.LoadToken(cfg.TokenFile)
	switch {
	case cfg.WebhookAuth && err != nil:
		return nil, cleanup, fmt.Errorf("webhook auth is enabled: %w", err)
	case cfg.WebhookAuth:
		opts = append(opts, server.WithBasicAuth(cfg.WebhookUser, token))
	case err != nil:
		log.Printf("[config] no secret token loaded: %v", err)
	default:
		log.Printf("[config] secret token loaded from %s; set WEBHOOK_AUTH=true to require it on the webhook", cfg.TokenFile)
	}

	if cfg.VoiceEnabled {
		gw, err := voice.NewGateway(ctx,
			voice.NewTwilioCalls(cfg.TwilioAccountSID, cfg.TwilioAuthToken),
			cfg.DialogflowProjectID, cfg.DialogflowLanguage, clientOptions(cfg)...)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { _ = gw.Close() }
		opts = append(opts, server.WithRoutes(gw))
	}

	return server.New(router, opts...), cleanup, nil
}

func clientOptions(cfg config.Config) []option.ClientOption {
	if cfg.DialogflowCredentials == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.DialogflowCredentials)}
}
