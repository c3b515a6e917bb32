package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"github.com/gofiber/websocket/v2"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"

	"jokebot/internal/agent"
)

const (
	mulawHeaderSize = 58
	sampleRateHertz = 8000
	welcomeEvent    = "Welcome"
)

// CallUpdater is the part of the Twilio REST API a session needs.
type CallUpdater interface {
	UpdateCall(sid string, params *openapi.UpdateCallParams) (*openapi.ApiV2010Call, error)
}

// Conn is the websocket side of a session; *websocket.Conn satisfies it.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
}

// Session bridges one Twilio media stream to a Dialogflow session.
type Session struct {
	ctx      context.Context
	cancel   context.CancelFunc
	calls    CallUpdater
	language string

	callSid   string
	streamSid string

	sessionPath   string
	sessionClient *dialogflow.SessionsClient
	sessionStream dialogflowpb.Sessions_StreamingDetectIntentClient

	redirectURL string

	mu                 sync.Mutex
	finalQueryResult   *dialogflowpb.QueryResult
	isStopped          bool
	isInterrupted      bool
	isAudioInputPaused bool

	// receivers tracks receive goroutines; Close waits for them so nothing
	// writes to the connection after the handler returns.
	receivers sync.WaitGroup

	writeMu    sync.Mutex
	connection Conn
}

func NewSession(ctx context.Context, calls CallUpdater, sessionClient *dialogflow.SessionsClient, projectID, language, redirectURL string) *Session {
	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		ctx:           ctx,
		cancel:        cancel,
		calls:         calls,
		language:      language,
		sessionPath:   agent.SessionPath(projectID, agent.NewSessionID()),
		sessionClient: sessionClient,
		redirectURL:   redirectURL,
	}
}

func (s *Session) outputAudioConfig() *dialogflowpb.OutputAudioConfig {
	return &dialogflowpb.OutputAudioConfig{
		AudioEncoding:   dialogflowpb.OutputAudioEncoding_OUTPUT_AUDIO_ENCODING_MULAW,
		SampleRateHertz: sampleRateHertz,
	}
}

func (s *Session) inputAudioConfig() *dialogflowpb.QueryInput_AudioConfig {
	return &dialogflowpb.QueryInput_AudioConfig{
		AudioConfig: &dialogflowpb.InputAudioConfig{
			SingleUtterance: true,
			AudioEncoding:   dialogflowpb.AudioEncoding_AUDIO_ENCODING_MULAW,
			SampleRateHertz: sampleRateHertz,
			LanguageCode:    s.language,
		},
	}
}

// HandleConnection reads Twilio stream events until the call stops or the
// socket closes.
func (s *Session) HandleConnection(c Conn) error {
	s.writeMu.Lock()
	s.connection = c
	s.writeMu.Unlock()

	var err error
	for !s.stopped() && err == nil {
		var req StreamInputRequest
		if rerr := c.ReadJSON(&req); rerr != nil {
			break
		}

		switch req.Event {
		case eventStart:
			if req.Start == nil {
				continue
			}
			s.callSid = req.Start.CallSid
			s.streamSid = req.Start.StreamSid
			log.Printf("[voice] call %s started stream %s", s.callSid, s.streamSid)
			err = s.welcome()

		case eventMedia:
			if req.Media != nil && !s.audioPaused() {
				err = s.onTwilioMedia(req.Media.Payload)
			}

		case eventMark:
			if req.Mark != nil && req.Mark.Name == markEndOfInteraction {
				s.onFinalResult()
			}

		case eventStop:
			s.Close()
		}
	}

	return err
}

func (s *Session) stream() (dialogflowpb.Sessions_StreamingDetectIntentClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStopped {
		return nil, errors.New("session closed")
	}
	if s.sessionStream != nil {
		return s.sessionStream, nil
	}

	dfStream, err := s.sessionClient.StreamingDetectIntent(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize streaming detect intent client. %w", err)
	}
	req := &dialogflowpb.StreamingDetectIntentRequest{
		Session:           s.sessionPath,
		OutputAudioConfig: s.outputAudioConfig(),
		QueryInput:        &dialogflowpb.QueryInput{Input: s.inputAudioConfig()},
	}
	if err := dfStream.Send(req); err != nil {
		return nil, fmt.Errorf("failed to initialize dialogflow audio stream. %w", err)
	}
	s.sessionStream = dfStream

	s.receivers.Add(1)
	go func() {
		defer s.receivers.Done()
		s.receive(dfStream)
	}()

	return dfStream, nil
}

// welcome triggers the agent's welcome event and plays its answer
// before caller audio is accepted.
func (s *Session) welcome() error {
	stream, err := s.sessionClient.StreamingDetectIntent(s.ctx)
	if err != nil {
		return fmt.Errorf("failed initialize Dialogflow streaming client. %w", err)
	}
	req := &dialogflowpb.StreamingDetectIntentRequest{
		Session:           s.sessionPath,
		OutputAudioConfig: s.outputAudioConfig(),
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_Event{
				Event: &dialogflowpb.EventInput{Name: welcomeEvent, LanguageCode: s.language}},
		},
	}
	if err := stream.Send(req); err != nil {
		return fmt.Errorf("failed to send dialogflow welcome event. %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("failed to close dialogflow welcome stream. %w", err)
	}

	s.mu.Lock()
	s.sessionStream = stream
	s.mu.Unlock()

	s.receive(stream)
	return nil
}

func (s *Session) onTwilioMedia(audio []byte) error {
	stream, err := s.stream()
	if err != nil {
		return fmt.Errorf("failed get Dialogflow streamer. %w", err)
	}
	if err := stream.Send(&dialogflowpb.StreamingDetectIntentRequest{InputAudio: audio}); err != nil {
		return fmt.Errorf("failed to send audio to dialogflow. %w", err)
	}
	return nil
}

func (s *Session) receive(stream dialogflowpb.Sessions_StreamingDetectIntentClient) {
	for {
		resp, err := stream.Recv()
		if err != nil {
			s.mu.Lock()
			if s.sessionStream == stream {
				s.sessionStream = nil
			}
			s.isInterrupted = false
			s.isAudioInputPaused = false
			s.mu.Unlock()
			break
		}

		if len(resp.OutputAudio) > mulawHeaderSize {
			s.onDialogflowMedia(resp.OutputAudio[mulawHeaderSize:])
		}

		if transcript := resp.GetRecognitionResult().GetTranscript(); transcript != "" {
			log.Printf("[voice] recognition result: %s", transcript)
			s.mu.Lock()
			interrupted := s.isInterrupted
			s.isInterrupted = true
			s.mu.Unlock()
			if !interrupted {
				s.onInterrupted()
			}
		}

		if resp.GetRecognitionResult().GetMessageType() == dialogflowpb.StreamingRecognitionResult_END_OF_SINGLE_UTTERANCE {
			s.mu.Lock()
			s.isAudioInputPaused = true
			s.mu.Unlock()
		}

		if qr := resp.GetQueryResult(); qr != nil && qr.GetIntent() != nil {
			log.Printf("[voice] intent detected: %s (end=%v)", qr.GetIntent().GetDisplayName(), qr.GetIntent().GetEndInteraction())
			if qr.GetIntent().GetEndInteraction() {
				s.mu.Lock()
				s.finalQueryResult = qr
				s.mu.Unlock()
			}
		}
	}

	s.mu.Lock()
	final := s.finalQueryResult != nil
	s.mu.Unlock()
	if final {
		s.endOfInteraction()
	}
}

func (s *Session) onDialogflowMedia(audio []byte) {
	s.send(&StreamOutputRequest{
		Event:     eventMedia,
		StreamSid: s.streamSid,
		Media:     &MediaPayload{Payload: audio},
	})
}

// onInterrupted clears audio Twilio has buffered when the caller barges in.
func (s *Session) onInterrupted() {
	s.send(&StreamOutputRequest{
		Event:     eventClear,
		StreamSid: s.streamSid,
	})
}

// endOfInteraction asks Twilio to echo a mark once queued audio has played.
func (s *Session) endOfInteraction() {
	s.send(&StreamOutputRequest{
		Event:     eventMark,
		StreamSid: s.streamSid,
		Mark:      &MarkPayload{Name: markEndOfInteraction},
	})
}

func (s *Session) onFinalResult() {
	log.Printf("[voice] redirecting call %s to %s", s.callSid, s.redirectURL)
	if err := s.redirect(); err != nil {
		log.Printf("[voice] failed to redirect call: %v", err)
	}
	s.Close()
}

func (s *Session) redirect() error {
	xml, err := RedirectTwiML(s.redirectURL)
	if err != nil {
		return err
	}
	params := &openapi.UpdateCallParams{}
	params.SetTwiml(xml)
	if _, err := s.calls.UpdateCall(s.callSid, params); err != nil {
		return fmt.Errorf("failed to update call: %w", err)
	}
	return nil
}

func (s *Session) send(req *StreamOutputRequest) {
	j, err := json.Marshal(req)
	if err != nil {
		log.Printf("[voice] failed to encode %s message: %v", req.Event, err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.connection == nil {
		return
	}
	if err := s.connection.WriteMessage(websocket.TextMessage, j); err != nil {
		log.Printf("[voice] failed to send %s message: %v", req.Event, err)
	}
}

func (s *Session) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isStopped
}

func (s *Session) audioPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAudioInputPaused
}

// Close stops the session: it detaches the connection, ends the Dialogflow
// stream and waits for receive goroutines to exit. The sessions client
// belongs to the gateway and is left open.
func (s *Session) Close() {
	s.mu.Lock()
	if s.isStopped {
		s.mu.Unlock()
		return
	}
	s.isStopped = true
	stream := s.sessionStream
	s.sessionStream = nil
	s.mu.Unlock()

	s.writeMu.Lock()
	s.connection = nil
	s.writeMu.Unlock()

	if stream != nil {
		_ = stream.CloseSend()
	}
	s.cancel()
	s.receivers.Wait()
}

// RedirectTwiML builds the TwiML that moves a call to url.
func RedirectTwiML(url string) (string, error) {
	xml, err := twiml.Voice([]twiml.Element{&twiml.VoiceRedirect{Url: url}})
	if err != nil {
		return "", fmt.Errorf("failed to create voice response: %w", err)
	}
	return xml, nil
}
