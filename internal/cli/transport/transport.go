// Package transport provides the shared HTTP client that attaches stored
// credentials to every outgoing API request.
package transport

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pixido-dev/pixido/internal/cli/credstore"
)

// Transport is an http.RoundTripper that injects the stored access token as
// a bearer credential and observes unauthorized responses. All other
// responses and errors pass through unchanged.
type Transport struct {
	// Base is the underlying round tripper; http.DefaultTransport when nil
	Base http.RoundTripper

	// Store supplies the access token; credstore.Default when nil
	Store credstore.Store

	Logger zerolog.Logger

	// OnUnauthorized, when set, is called after any 401 response. It is the
	// hook point for a future refresh-token flow; the transport itself never
	// retries or redirects.
	OnUnauthorized func(req *http.Request)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) store() credstore.Store {
	if t.Store != nil {
		return t.Store
	}
	return credstore.Default
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.store().Load()
	if err != nil {
		// A broken keyring downgrades to an unauthenticated request
		t.Logger.Warn().Err(err).Msg("Failed to load access token")
		token = ""
	}

	if token != "" {
		// RoundTrippers must not mutate the caller's request
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.Logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Msg("Unauthorized response - token expired or invalid")
		if t.OnUnauthorized != nil {
			t.OnUnauthorized(req)
		}
	}

	return resp, nil
}

var (
	sharedOnce   sync.Once
	sharedClient *http.Client
)

// Shared returns the process-wide HTTP client. Every API collaborator uses
// this instance so credential attachment behaves identically everywhere.
func Shared(logger zerolog.Logger) *http.Client {
	sharedOnce.Do(func() {
		sharedClient = NewClient(credstore.Default, logger)
	})
	return sharedClient
}

// NewClient builds an HTTP client around a Transport with the given store
func NewClient(store credstore.Store, logger zerolog.Logger) *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &Transport{
			Store:  store,
			Logger: logger,
		},
	}
}
