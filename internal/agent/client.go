// Package agent talks to the Dialogflow agent whose fulfillment this
// service provides.
package agent

import (
	"context"
	"errors"
	"fmt"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/google/uuid"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

type sessions interface {
	DetectIntent(ctx context.Context, req *dialogflowpb.DetectIntentRequest, opts ...gax.CallOption) (*dialogflowpb.DetectIntentResponse, error)
	Close() error
}

type Client struct {
	projectID string
	language  string
	sessions  sessions
}

func New(ctx context.Context, projectID, language string, opts ...option.ClientOption) (*Client, error) {
	if projectID == "" {
		return nil, errors.New("dialogflow project id is required")
	}
	sc, err := dialogflow.NewSessionsClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Dialogflow session. %w", err)
	}
	return &Client{projectID: projectID, language: language, sessions: sc}, nil
}

// SessionPath returns the session resource name for sessionID.
func SessionPath(projectID, sessionID string) string {
	return fmt.Sprintf("projects/%s/agent/sessions/%s", projectID, sessionID)
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.New().String()
}

// DetectText sends one text query in sessionID and returns the query result,
// including the fulfillment messages produced by the webhook.
func (c *Client) DetectText(ctx context.Context, sessionID, text string) (*dialogflowpb.QueryResult, error) {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	resp, err := c.sessions.DetectIntent(ctx, &dialogflowpb.DetectIntentRequest{
		Session: SessionPath(c.projectID, sessionID),
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_Text{
				Text: &dialogflowpb.TextInput{Text: text, LanguageCode: c.language},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect intent: %w", err)
	}
	return resp.GetQueryResult(), nil
}

func (c *Client) Close() error {
	return c.sessions.Close()
}
