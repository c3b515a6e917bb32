package fulfillment

import (
	"errors"
	"fmt"
)

var (
	ErrIntentNotFound         = errors.New("intent not found")
	ErrMissingFollowupContext = errors.New("missing follow-up context")
	ErrMissingParameter       = errors.New("missing parameter")
	ErrMalformedRequest       = errors.New("malformed webhook request")
)

// UnmappedIntentError reports an intent name with no bound handler.
type UnmappedIntentError struct {
	Intent string
}

func (e *UnmappedIntentError) Error() string {
	return fmt.Sprintf("could not find %q in intent map", e.Intent)
}

func (e *UnmappedIntentError) Unwrap() error { return ErrIntentNotFound }

// MissingParameterError reports a required parameter absent from the
// request parameters or from a follow-up context.
type MissingParameterError struct {
	Intent    string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("intent %q: missing parameter %q", e.Intent, e.Parameter)
}

func (e *MissingParameterError) Unwrap() error { return ErrMissingParameter }
