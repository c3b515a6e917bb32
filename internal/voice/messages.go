package voice

// Twilio media stream messages.
// https://www.twilio.com/docs/voice/media-streams/websocket-messages

const (
	eventStart = "start"
	eventMedia = "media"
	eventMark  = "mark"
	eventStop  = "stop"
	eventClear = "clear"

	markEndOfInteraction = "endOfInteraction"
)

// Start is the body of the "start" event.
type Start struct {
	AccountSid  string      `json:"accountSid"`
	StreamSid   string      `json:"streamSid"`
	CallSid     string      `json:"callSid"`
	Tracks      []string    `json:"tracks"`
	MediaFormat MediaFormat `json:"mediaFormat"`
}

// MediaFormat describes the audio of a "start" event.
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// Mark is the body of an inbound "mark" event.
type Mark struct {
	Name string `json:"name"`
}

// Media is the body of an inbound "media" event.
type Media struct {
	Track     string `json:"track"`
	Chunk     string `json:"chunk"`
	Timestamp string `json:"timestamp"`
	Payload   []byte `json:"payload"`
}

// StreamInputRequest is any inbound event: "start", "media", "mark" or "stop".
type StreamInputRequest struct {
	Event     string  `json:"event"`
	Start     *Start  `json:"start"`
	Media     *Media  `json:"media"`
	Mark      *Mark   `json:"mark"`
	StreamSid *string `json:"streamSid"`
}

// MediaPayload is the body of an outbound "media" message.
type MediaPayload struct {
	Payload []byte `json:"payload"`
}

// MarkPayload is the body of an outbound "mark" message.
type MarkPayload struct {
	Name string `json:"name"`
}

// StreamOutputRequest is an outbound "media", "mark" or "clear" message.
type StreamOutputRequest struct {
	StreamSid string        `json:"streamSid"`
	Event     string        `json:"event"`
	Media     *MediaPayload `json:"media,omitempty"`
	Mark      *MarkPayload  `json:"mark,omitempty"`
}
