package fulfillment

// IntentRequest is the part of a Dialogflow webhook request the handlers use.
type IntentRequest struct {
	Session        string
	IntentName     string
	QueryText      string
	LanguageCode   string
	Parameters     map[string]any
	OutputContexts []Context
}

// Context is an active output context. Name is the full resource path,
// e.g. projects/p/agent/sessions/s/contexts/telljoke-followup.
type Context struct {
	Name       string
	Parameters map[string]any
}

// Message is one of TextMessage or CardMessage.
type Message interface {
	isMessage()
}

type TextMessage struct {
	Lines []string
}

type CardMessage struct {
	Title    string
	Subtitle string
	Buttons  []Button
}

type Button struct {
	Label string
	URL   string
}

func (TextMessage) isMessage() {}
func (CardMessage) isMessage() {}

// IntentResponse is the ordered list of messages sent back to the agent.
type IntentResponse struct {
	Messages []Message
}

func Respond(msgs ...Message) *IntentResponse {
	return &IntentResponse{Messages: msgs}
}
