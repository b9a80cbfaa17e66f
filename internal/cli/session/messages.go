package session

import (
	"errors"

	"github.com/pixido-dev/pixido/internal/cli/api"
)

// AuthError carries the human-readable message chosen by the precedence
// chain alongside the underlying failure
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// extractor produces a candidate message from a structured API error, or ""
type extractor func(*api.Error) string

// Message precedence is an ordered list of extractors; the first non-empty
// result wins. Keeping the policy as data makes it testable in isolation.
var (
	loginMessageChain = []extractor{
		func(e *api.Error) string { return e.Detail },
		func(e *api.Error) string { return e.Message },
	}

	registerMessageChain = []extractor{
		func(e *api.Error) string { return e.Field("password") },
		func(e *api.Error) string { return e.Detail },
		func(e *api.Error) string { return e.Message },
		func(e *api.Error) string { return e.Raw },
	}
)

// failureMessage reduces any collaborator failure to a human-readable
// message. Structured API errors run through the precedence chain;
// everything else (network failures, decode errors) falls back to the
// generic message.
func failureMessage(err error, chain []extractor, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		for _, extract := range chain {
			if msg := extract(apiErr); msg != "" {
				return msg
			}
		}
	}
	return fallback
}
