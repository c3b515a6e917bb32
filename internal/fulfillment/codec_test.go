package fulfillment

import (
	"encoding/json"
	"errors"
	"testing"

	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/google/go-cmp/cmp"
)

const webhookBody = `{
  "responseId": "response-id",
  "session": "projects/p/agent/sessions/s",
  "queryResult": {
    "queryText": "another one",
    "parameters": {"jokeCategory": "Pun"},
    "allRequiredParamsPresent": true,
    "intent": {"name": "projects/p/agent/intents/abc", "displayName": "TellJoke - more"},
    "intentDetectionConfidence": 1,
    "languageCode": "en",
    "outputContexts": [
      {
        "name": "projects/p/agent/sessions/s/contexts/telljoke-followup",
        "lifespanCount": 2,
        "parameters": {"jokeCategory": "Pun", "jokeCategory.original": "puns"}
      }
    ]
  },
  "originalDetectIntentRequest": {"payload": {}},
  "someFutureField": true
}`

func TestDecodeRequest(t *testing.T) {
	got, err := DecodeRequest([]byte(webhookBody))
	if err != nil {
		t.Fatalf("DecodeRequest() error = %v", err)
	}

	want := &IntentRequest{
		Session:      "projects/p/agent/sessions/s",
		IntentName:   "TellJoke - more",
		QueryText:    "another one",
		LanguageCode: "en",
		Parameters:   map[string]any{"jokeCategory": "Pun"},
		OutputContexts: []Context{{
			Name:       "projects/p/agent/sessions/s/contexts/telljoke-followup",
			Parameters: map[string]any{"jokeCategory": "Pun", "jokeCategory.original": "puns"},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeRequest() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRequestMalformed(t *testing.T) {
	for _, body := range []string{
		``,
		`not json`,
		`{}`,
		`{"queryResult": {}}`,
		`{"queryResult": {"intent": {"displayName": ""}}}`,
	} {
		if _, err := DecodeRequest([]byte(body)); !errors.Is(err, ErrMalformedRequest) {
			t.Errorf("DecodeRequest(%q) error = %v, want ErrMalformedRequest", body, err)
		}
	}
}

func TestEncodeResponse(t *testing.T) {
	resp := Respond(
		TextMessage{Lines: []string{"Here's another Pun joke since you liked the last one!"}},
		CardMessage{
			Title:    "Pun joke",
			Subtitle: "A B",
			Buttons:  []Button{{Label: "View More Jokes", URL: "https://v2.jokeapi.dev/"}},
		},
	)

	body, err := EncodeResponse(resp)
	if err != nil {
		t.Fatalf("EncodeResponse() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	want := map[string]any{
		"fulfillmentMessages": []any{
			map[string]any{"text": map[string]any{"text": []any{"Here's another Pun joke since you liked the last one!"}}},
			map[string]any{"card": map[string]any{
				"title":    "Pun joke",
				"subtitle": "A B",
				"buttons":  []any{map[string]any{"text": "View More Jokes", "postback": "https://v2.jokeapi.dev/"}},
			}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EncodeResponse() mismatch (-want +got):\n%s", diff)
	}
}

func TestMessagesFromProtoRoundTrip(t *testing.T) {
	msgs := []Message{
		TextMessage{Lines: []string{"hi"}},
		CardMessage{Title: "T", Subtitle: "S", Buttons: []Button{{Label: "L", URL: "U"}}},
	}
	pb := ToWebhookResponse(Respond(msgs...)).GetFulfillmentMessages()
	pb = append(pb, &dialogflowpb.Intent_Message{
		Message: &dialogflowpb.Intent_Message_QuickReplies_{QuickReplies: &dialogflowpb.Intent_Message_QuickReplies{}},
	})

	if diff := cmp.Diff(msgs, MessagesFromProto(pb)); diff != "" {
		t.Errorf("MessagesFromProto() mismatch (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	got := Render([]Message{
		TextMessage{Lines: []string{"a", "b"}},
		CardMessage{Title: "Pun joke", Subtitle: "A B", Buttons: []Button{{Label: "View More Jokes", URL: "https://v2.jokeapi.dev/"}}},
	})
	want := []string{"a", "b", "[Pun joke] A B", "  (View More Jokes) https://v2.jokeapi.dev/"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestIntentResponseString(t *testing.T) {
	resp := Respond(TextMessage{Lines: []string{"Here's another Pun joke"}}, CardMessage{Title: "Pun joke", Subtitle: "A B"})
	if got, want := resp.String(), "Here's another Pun joke | [Pun joke] A B"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := (*IntentResponse)(nil).String(); got != "<nil>" {
		t.Errorf("nil String() = %q", got)
	}
}
