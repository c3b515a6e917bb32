package fulfillment

import (
	"fmt"
	"strings"

	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"google.golang.org/protobuf/encoding/protojson"
)

var (
	unmarshalOpts = protojson.UnmarshalOptions{DiscardUnknown: true}
	marshalOpts   = protojson.MarshalOptions{}
)

// DecodeRequest parses a Dialogflow ES webhook request body.
func DecodeRequest(body []byte) (*IntentRequest, error) {
	var wr dialogflowpb.WebhookRequest
	if err := unmarshalOpts.Unmarshal(body, &wr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return FromWebhookRequest(&wr)
}

func FromWebhookRequest(wr *dialogflowpb.WebhookRequest) (*IntentRequest, error) {
	qr := wr.GetQueryResult()
	if qr == nil {
		return nil, fmt.Errorf("%w: no queryResult", ErrMalformedRequest)
	}
	name := qr.GetIntent().GetDisplayName()
	if name == "" {
		return nil, fmt.Errorf("%w: no queryResult.intent.displayName", ErrMalformedRequest)
	}

	req := &IntentRequest{
		Session:      wr.GetSession(),
		IntentName:   name,
		QueryText:    qr.GetQueryText(),
		LanguageCode: qr.GetLanguageCode(),
		Parameters:   qr.GetParameters().AsMap(),
	}
	for _, c := range qr.GetOutputContexts() {
		req.OutputContexts = append(req.OutputContexts, Context{
			Name:       c.GetName(),
			Parameters: c.GetParameters().AsMap(),
		})
	}
	return req, nil
}

// EncodeResponse renders resp as a Dialogflow ES webhook response body.
func EncodeResponse(resp *IntentResponse) ([]byte, error) {
	b, err := marshalOpts.Marshal(ToWebhookResponse(resp))
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook response: %w", err)
	}
	return b, nil
}

func ToWebhookResponse(resp *IntentResponse) *dialogflowpb.WebhookResponse {
	out := &dialogflowpb.WebhookResponse{}
	if resp == nil {
		return out
	}
	for _, m := range resp.Messages {
		if pm := messageToProto(m); pm != nil {
			out.FulfillmentMessages = append(out.FulfillmentMessages, pm)
		}
	}
	return out
}

func messageToProto(m Message) *dialogflowpb.Intent_Message {
	switch m := m.(type) {
	case TextMessage:
		return &dialogflowpb.Intent_Message{
			Message: &dialogflowpb.Intent_Message_Text_{
				Text: &dialogflowpb.Intent_Message_Text{Text: m.Lines},
			},
		}
	case CardMessage:
		card := &dialogflowpb.Intent_Message_Card{
			Title:    m.Title,
			Subtitle: m.Subtitle,
		}
		for _, b := range m.Buttons {
			card.Buttons = append(card.Buttons, &dialogflowpb.Intent_Message_Card_Button{
				Text:     b.Label,
				Postback: b.URL,
			})
		}
		return &dialogflowpb.Intent_Message{
			Message: &dialogflowpb.Intent_Message_Card_{Card: card},
		}
	default:
		return nil
	}
}

// MessagesFromProto converts agent messages back to the domain variants.
// Message kinds other than text and card are skipped.
func MessagesFromProto(msgs []*dialogflowpb.Intent_Message) []Message {
	var out []Message
	for _, m := range msgs {
		switch {
		case m.GetText() != nil:
			out = append(out, TextMessage{Lines: m.GetText().GetText()})
		case m.GetCard() != nil:
			c := m.GetCard()
			card := CardMessage{Title: c.GetTitle(), Subtitle: c.GetSubtitle()}
			for _, b := range c.GetButtons() {
				card.Buttons = append(card.Buttons, Button{Label: b.GetText(), URL: b.GetPostback()})
			}
			out = append(out, card)
		}
	}
	return out
}

// Render formats messages as plain lines for terminals and logs.
func Render(msgs []Message) []string {
	var lines []string
	for _, m := range msgs {
		switch m := m.(type) {
		case TextMessage:
			lines = append(lines, m.Lines...)
		case CardMessage:
			lines = append(lines, fmt.Sprintf("[%s] %s", m.Title, m.Subtitle))
			for _, b := range m.Buttons {
				lines = append(lines, fmt.Sprintf("  (%s) %s", b.Label, b.URL))
			}
		}
	}
	return lines
}

// String is a single-line summary used in log output.
func (r *IntentResponse) String() string {
	if r == nil {
		return "<nil>"
	}
	return strings.Join(Render(r.Messages), " | ")
}
