package transport

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory credential store for tests
type memoryStore struct {
	access  string
	refresh string
	loadErr error
}

func (m *memoryStore) Save(accessToken, refreshToken string) error {
	m.access = accessToken
	if refreshToken != "" {
		m.refresh = refreshToken
	}
	return nil
}

func (m *memoryStore) Load() (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	return m.access, nil
}

func (m *memoryStore) LoadRefresh() (string, error) {
	return m.refresh, nil
}

func (m *memoryStore) Clear() error {
	m.access = ""
	m.refresh = ""
	return nil
}

func TestRoundTripAttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: &Transport{
		Store:  &memoryStore{access: "my-token"},
		Logger: zerolog.Nop(),
	}}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer my-token", gotAuth)
}

func TestRoundTripWithoutTokenSendsNoHeader(t *testing.T) {
	var gotAuth string
	var hasHeader bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasHeader = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: &Transport{
		Store:  &memoryStore{},
		Logger: zerolog.Nop(),
	}}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, gotAuth)
	assert.False(t, hasHeader)
}

func TestRoundTripDoesNotMutateOriginalRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: &Transport{
		Store:  &memoryStore{access: "my-token"},
		Logger: zerolog.Nop(),
	}}

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestRoundTripBrokenStoreDowngradesToUnauthenticated(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: &Transport{
		Store:  &memoryStore{loadErr: errors.New("keyring unavailable")},
		Logger: zerolog.Nop(),
	}}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, gotAuth)
}

func TestRoundTripUnauthorizedInvokesHookAndPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "token expired"}`))
	}))
	defer server.Close()

	var hookCalled bool
	client := &http.Client{Transport: &Transport{
		Store:  &memoryStore{access: "stale-token"},
		Logger: zerolog.Nop(),
		OnUnauthorized: func(req *http.Request) {
			hookCalled = true
		},
	}}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	// The response is observed, not consumed: status and body reach the caller
	assert.True(t, hookCalled)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"detail": "token expired"}`, string(body))
}

func TestRoundTripSuccessSkipsHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var hookCalled bool
	client := &http.Client{Transport: &Transport{
		Store:          &memoryStore{access: "my-token"},
		Logger:         zerolog.Nop(),
		OnUnauthorized: func(req *http.Request) { hookCalled = true },
	}}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.False(t, hookCalled)
}
