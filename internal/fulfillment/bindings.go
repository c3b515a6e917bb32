package fulfillment

import (
	"errors"
	"fmt"
)

// Bindings ties the handlers to the names configured in the Dialogflow
// agent. A mismatch between these and the agent surfaces as a 404 from the
// webhook, so they can be overridden without a rebuild.
type Bindings struct {
	Greeting        string `yaml:"greeting"`
	TellJoke        string `yaml:"tell_joke"`
	TellAnotherJoke string `yaml:"tell_another_joke"`

	CategoryParameter     string `yaml:"category_parameter"`
	FollowupContextSuffix string `yaml:"followup_context_suffix"`
	DiscoveryURL          string `yaml:"discovery_url"`
}

func DefaultBindings() Bindings {
	return Bindings{
		Greeting:              "HelloWorld",
		TellJoke:              "TellJoke",
		TellAnotherJoke:       "TellJoke - more",
		CategoryParameter:     "jokeCategory",
		FollowupContextSuffix: "telljoke-followup",
		DiscoveryURL:          "https://v2.jokeapi.dev/",
	}
}

// WithDefaults fills every empty field from DefaultBindings.
func (b Bindings) WithDefaults() Bindings {
	d := DefaultBindings()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&b.Greeting, d.Greeting)
	fill(&b.TellJoke, d.TellJoke)
	fill(&b.TellAnotherJoke, d.TellAnotherJoke)
	fill(&b.CategoryParameter, d.CategoryParameter)
	fill(&b.FollowupContextSuffix, d.FollowupContextSuffix)
	fill(&b.DiscoveryURL, d.DiscoveryURL)
	return b
}

// Validate rejects two handlers bound to the same intent name.
func (b Bindings) Validate() error {
	seen := map[string]string{}
	for _, kv := range [][2]string{
		{"greeting", b.Greeting},
		{"tell_joke", b.TellJoke},
		{"tell_another_joke", b.TellAnotherJoke},
	} {
		if kv[1] == "" {
			return fmt.Errorf("binding %s: empty intent name", kv[0])
		}
		if prev, ok := seen[kv[1]]; ok {
			return fmt.Errorf("bindings %s and %s share intent %q", prev, kv[0], kv[1])
		}
		seen[kv[1]] = kv[0]
	}
	if b.CategoryParameter == "" {
		return errors.New("category_parameter must not be empty")
	}
	if b.FollowupContextSuffix == "" {
		return errors.New("followup_context_suffix must not be empty")
	}
	return nil
}
