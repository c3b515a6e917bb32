// Package voice connects phone callers to the Dialogflow agent through
// Twilio media streams.
package voice

import (
	"context"
	"fmt"
	"log"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/twiml"
	"google.golang.org/api/option"
)

const goodbye = "Thanks for calling. Goodbye!"

type Gateway struct {
	calls     CallUpdater
	projectID string
	language  string
	sessions  *dialogflow.SessionsClient
}

// NewTwilioCalls returns the Twilio call API for the given account.
func NewTwilioCalls(accountSID, authToken string) CallUpdater {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return client.Api
}

// NewGateway opens the shared Dialogflow sessions client.
func NewGateway(ctx context.Context, calls CallUpdater, projectID, language string, opts ...option.ClientOption) (*Gateway, error) {
	sc, err := dialogflow.NewSessionsClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Dialogflow session. %w", err)
	}
	return &Gateway{calls: calls, projectID: projectID, language: language, sessions: sc}, nil
}

// Register mounts the voice routes on r.
func (g *Gateway) Register(r fiber.Router) {
	r.Use("/ws", upgradeOnly)
	r.Post("/twiml", handleTwiML)
	r.Get("/ws/media", websocket.New(g.handleMedia))
	r.Post("/redirect", handleRedirect)
}

func (g *Gateway) Close() error {
	if g.sessions == nil {
		return nil
	}
	return g.sessions.Close()
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("hostname", c.Hostname())
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// handleTwiML answers an incoming call by connecting it to the media stream.
func handleTwiML(c *fiber.Ctx) error {
	stream := &twiml.VoiceStream{Url: fmt.Sprintf("wss://%s/ws/media", c.Hostname())}
	connect := &twiml.VoiceConnect{InnerElements: []twiml.Element{stream}}
	return voiceResponse(c, connect)
}

// handleRedirect is where finished calls land after the agent ends the
// interaction.
func handleRedirect(c *fiber.Ctx) error {
	return voiceResponse(c, &twiml.VoiceSay{Message: goodbye}, &twiml.VoiceHangup{})
}

func (g *Gateway) handleMedia(c *websocket.Conn) {
	defer c.Close()

	host, _ := c.Locals("hostname").(string)
	session := NewSession(context.Background(), g.calls, g.sessions, g.projectID, g.language, fmt.Sprintf("https://%s/redirect", host))
	// c is returned to the websocket pool after this handler; Close waits
	// for the receive goroutines first.
	defer session.Close()

	if err := session.HandleConnection(c); err != nil {
		log.Printf("[voice] failed to process websocket connection: %v", err)
	}
}

func voiceResponse(c *fiber.Ctx, verbs ...twiml.Element) error {
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")

	xml, err := twiml.Voice(verbs)
	if err != nil {
		return fmt.Errorf("failed to create voice response: %w", err)
	}

	return c.SendString(xml)
}
