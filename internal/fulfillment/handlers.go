package fulfillment

import (
	"context"
	"fmt"
	"log"
	"strings"

	"jokebot/internal/jokeapi"
)

const (
	greetingText   = "You will see this if you trigger an intent named HelloWorld"
	moreJokesLabel = "View More Jokes"
)

// JokeProvider is satisfied by *jokeapi.Client.
type JokeProvider interface {
	Fetch(ctx context.Context, category string) (jokeapi.Joke, error)
}

type Handlers struct {
	bindings Bindings
	jokes    JokeProvider
}

func NewHandlers(b Bindings, jokes JokeProvider) *Handlers {
	return &Handlers{bindings: b.WithDefaults(), jokes: jokes}
}

// Table returns the dispatch table keyed by the bound intent names.
func (h *Handlers) Table() map[string]Handler {
	return map[string]Handler{
		h.bindings.Greeting:        h.Greeting,
		h.bindings.TellJoke:        h.TellJoke,
		h.bindings.TellAnotherJoke: h.TellAnotherJoke,
	}
}

// NewDispatcher builds the Router for the bound handlers.
func NewDispatcher(b Bindings, jokes JokeProvider) *Router {
	return NewRouter(NewHandlers(b, jokes).Table())
}

func (h *Handlers) Greeting(_ context.Context, _ *IntentRequest) (*IntentResponse, error) {
	return Respond(TextMessage{Lines: []string{greetingText}}), nil
}

func (h *Handlers) TellJoke(ctx context.Context, req *IntentRequest) (*IntentResponse, error) {
	category, ok := stringParam(req.Parameters, h.bindings.CategoryParameter)
	if !ok {
		return nil, &MissingParameterError{Intent: req.IntentName, Parameter: h.bindings.CategoryParameter}
	}
	return Respond(h.jokeCard(ctx, category)), nil
}

func (h *Handlers) TellAnotherJoke(ctx context.Context, req *IntentRequest) (*IntentResponse, error) {
	followup, ok := h.followupContext(req.OutputContexts)
	if !ok {
		return nil, fmt.Errorf("intent %q: %w ending in %q", req.IntentName, ErrMissingFollowupContext, h.bindings.FollowupContextSuffix)
	}
	category, ok := stringParam(followup.Parameters, h.bindings.CategoryParameter)
	if !ok {
		return nil, &MissingParameterError{Intent: req.IntentName, Parameter: h.bindings.CategoryParameter}
	}

	return Respond(
		TextMessage{Lines: []string{fmt.Sprintf("Here's another %s joke since you liked the last one!", category)}},
		h.jokeCard(ctx, category),
	), nil
}

func (h *Handlers) followupContext(contexts []Context) (Context, bool) {
	for _, c := range contexts {
		if strings.HasSuffix(c.Name, h.bindings.FollowupContextSuffix) {
			return c, true
		}
	}
	return Context{}, false
}

func (h *Handlers) jokeCard(ctx context.Context, category string) CardMessage {
	return CardMessage{
		Title:    category + " joke",
		Subtitle: h.jokeText(ctx, category),
		Buttons:  []Button{{Label: moreJokesLabel, URL: h.bindings.DiscoveryURL}},
	}
}

// jokeText never fails; provider errors render as the fallback sentence.
func (h *Handlers) jokeText(ctx context.Context, category string) string {
	joke, err := h.jokes.Fetch(ctx, category)
	if err != nil {
		log.Printf("[jokes] fetch %q failed: %v", category, err)
		return jokeapi.Fallback
	}
	return joke.Text()
}

// stringParam reads a non-empty parameter. Dialogflow sends entity values
// as strings, but numbers and other scalars are formatted rather than
// rejected.
func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", false
	}
	// list parameters take their first non-empty value
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if s, ok := scalarParam(item); ok {
				return s, true
			}
		}
		return "", false
	}
	return scalarParam(v)
}

func scalarParam(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
