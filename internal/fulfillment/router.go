package fulfillment

import (
	"context"
	"log"
	"sort"
)

// Handler produces the response for one intent.
type Handler func(ctx context.Context, req *IntentRequest) (*IntentResponse, error)

// Router dispatches webhook requests by intent display name. The table is
// copied at construction and never written afterwards, so a Router may be
// shared across goroutines.
type Router struct {
	table map[string]Handler
}

func NewRouter(table map[string]Handler) *Router {
	t := make(map[string]Handler, len(table))
	for name, h := range table {
		t[name] = h
	}
	return &Router{table: t}
}

// Route invokes the handler bound to req.IntentName. An unbound name
// yields an *UnmappedIntentError and no handler runs.
func (r *Router) Route(ctx context.Context, req *IntentRequest) (*IntentResponse, error) {
	h, ok := r.Lookup(req.IntentName)
	if !ok {
		log.Printf("[router] could not find %q in intent map", req.IntentName)
		return nil, &UnmappedIntentError{Intent: req.IntentName}
	}
	return h(ctx, req)
}

// Lookup returns the handler bound to intent.
func (r *Router) Lookup(intent string) (Handler, bool) {
	h, ok := r.table[intent]
	return h, ok
}

// Intents returns the bound intent names in sorted order.
func (r *Router) Intents() []string {
	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
