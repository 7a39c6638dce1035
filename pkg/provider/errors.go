package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAllProvidersExhausted is reported when every entry in a provider chain
// has failed. It is fatal for the calling stage; there is nothing left to try.
var ErrAllProvidersExhausted = errors.New("all providers exhausted")

// ErrEmptyChain is returned for a completion request with no provider specs.
var ErrEmptyChain = errors.New("provider chain is empty")

// ErrorKind classifies a single provider failure.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate_limited"
	KindTransport   ErrorKind = "transport"
	KindStatus      ErrorKind = "status"
)

// Error is one classified failure from one provider attempt.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(providerName string, kind ErrorKind, err error) *Error {
	return &Error{Provider: providerName, Kind: kind, Err: err}
}

// ExhaustedError carries the per-provider failures behind
// ErrAllProvidersExhausted for diagnostics.
type ExhaustedError struct {
	Attempts []error
}

func (e *ExhaustedError) Error() string {
	msgs := make([]string, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		msgs = append(msgs, err.Error())
	}

	return fmt.Sprintf("%v: %s", ErrAllProvidersExhausted, strings.Join(msgs, "; "))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrAllProvidersExhausted
}

func (e *ExhaustedError) Unwrap() []error {
	return e.Attempts
}
