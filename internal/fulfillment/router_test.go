package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func recordingTable(calls *[]string, names ...string) map[string]Handler {
	t := map[string]Handler{}
	for _, name := range names {
		name := name
		t[name] = func(context.Context, *IntentRequest) (*IntentResponse, error) {
			*calls = append(*calls, name)
			return Respond(TextMessage{Lines: []string{name}}), nil
		}
	}
	return t
}

func TestRouteInvokesBoundHandlerOnly(t *testing.T) {
	names := []string{"HelloWorld", "TellJoke", "TellJoke - more"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			var calls []string
			r := NewRouter(recordingTable(&calls, names...))

			resp, err := r.Route(context.Background(), &IntentRequest{IntentName: name})
			if err != nil {
				t.Fatalf("Route() error = %v", err)
			}
			if diff := cmp.Diff([]string{name}, calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(Respond(TextMessage{Lines: []string{name}}), resp); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouteUnmappedIntent(t *testing.T) {
	var calls []string
	r := NewRouter(recordingTable(&calls, "HelloWorld"))

	for _, name := range []string{"", "helloworld", "TellJoke", "Default Fallback Intent"} {
		resp, err := r.Route(context.Background(), &IntentRequest{IntentName: name})
		if resp != nil {
			t.Errorf("Route(%q) response = %v, want nil", name, resp)
		}
		if !errors.Is(err, ErrIntentNotFound) {
			t.Errorf("Route(%q) error = %v, want ErrIntentNotFound", name, err)
		}
		var ue *UnmappedIntentError
		if !errors.As(err, &ue) || ue.Intent != name {
			t.Errorf("Route(%q) error = %#v, want UnmappedIntentError for the name", name, err)
		}
	}
	if len(calls) != 0 {
		t.Errorf("handlers invoked: %v", calls)
	}
}

func TestRouterTableIsCopied(t *testing.T) {
	var calls []string
	table := recordingTable(&calls, "HelloWorld")
	r := NewRouter(table)

	delete(table, "HelloWorld")
	table["Injected"] = table["HelloWorld"]

	if _, ok := r.Lookup("HelloWorld"); !ok {
		t.Error("router lost a binding after the source map was mutated")
	}
	if _, ok := r.Lookup("Injected"); ok {
		t.Error("router picked up a binding added after construction")
	}
}

func TestRouterIntents(t *testing.T) {
	r := NewDispatcher(DefaultBindings(), &stubJokes{})
	want := []string{"HelloWorld", "TellJoke", "TellJoke - more"}
	if diff := cmp.Diff(want, r.Intents()); diff != "" {
		t.Errorf("Intents() mismatch (-want +got):\n%s", diff)
	}
}

func TestBindingsValidate(t *testing.T) {
	if err := DefaultBindings().Validate(); err != nil {
		t.Fatalf("default bindings invalid: %v", err)
	}

	dup := DefaultBindings()
	dup.TellAnotherJoke = dup.TellJoke
	if err := dup.Validate(); err == nil {
		t.Error("expected error for duplicate intent names")
	}

	empty := DefaultBindings()
	empty.FollowupContextSuffix = ""
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty follow-up suffix")
	}
}
