// Package session owns the client-side authentication state: the current
// user, the loading flag, and the login/registration/logout flows. It
// reconciles the two backend authentication contracts (combined
// tokens-plus-profile endpoint versus token-only endpoint plus a separate
// profile fetch) so callers never need to know which one is live.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pixido-dev/pixido/internal/cli/access"
	"github.com/pixido-dev/pixido/internal/cli/api"
	"github.com/pixido-dev/pixido/internal/cli/credstore"
)

// API is the slice of the API client the session manager depends on
type API interface {
	Login(ctx context.Context, username, password string) (*api.AuthResponse, error)
	Token(ctx context.Context, username, password string) (*api.TokenResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	RefreshToken(ctx context.Context, refresh string) (string, error)
	CurrentUser(ctx context.Context) (*api.User, error)
}

// Notifier receives user-facing notifications for auth transitions. A
// failing notifier must never block a state change; implementations are
// invoked after the transition has been applied.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Manager is the session state machine. It starts in the loading state and
// settles to either an authenticated user or a guest.
type Manager struct {
	api    API
	store  credstore.Store
	notify Notifier
	logger zerolog.Logger

	mu      sync.Mutex
	gen     uint64
	user    *api.User
	loading bool
}

// New creates a session manager in the initializing state. Call Start to
// settle it.
func New(apiClient API, store credstore.Store, notifier Notifier, logger zerolog.Logger) *Manager {
	return &Manager{
		api:     apiClient,
		store:   store,
		notify:  notifier,
		logger:  logger,
		loading: true,
	}
}

// Start performs the startup check: with a stored token the profile is
// fetched to restore the session, without one the manager settles to guest
// immediately and no network call is made.
func (m *Manager) Start(ctx context.Context) {
	token, err := m.store.Load()
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to read credential store")
	}

	if token == "" {
		m.mu.Lock()
		m.loading = false
		m.user = nil
		m.mu.Unlock()
		return
	}

	m.FetchUser(ctx)
}

// FetchUser resolves the current user through the authenticated transport.
// Any failure, including an expired token, clears the stored credentials and
// downgrades to guest; startup failure is never fatal.
func (m *Manager) FetchUser(ctx context.Context) error {
	gen := m.begin(true)

	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Msg("Failed to fetch user")
		if clearErr := m.store.Clear(); clearErr != nil {
			m.logger.Warn().Err(clearErr).Msg("Failed to clear credential store")
		}
		m.apply(gen, nil)
		return err
	}

	m.apply(gen, user)
	return nil
}

// Login authenticates with a two-tier strategy. The combined endpoint is
// tried first; when it fails, the token-only endpoint plus a profile fetch
// covers servers exposing only the split contract. On a combined success the
// token-only endpoint is never called.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	gen := m.begin(true)

	outcome := m.attemptLogin(ctx, username, password)

	switch o := outcome.(type) {
	case loginCombined:
		m.saveTokens(o.resp.Access, o.resp.Refresh)
		m.apply(gen, o.resp.User)
		m.safeNotify(func(n Notifier) { n.Success("Login successful!") })
		return nil

	case loginSplit:
		m.saveTokens(o.tokens.Access, o.tokens.Refresh)
		user, err := m.api.CurrentUser(ctx)
		if err != nil {
			msg := failureMessage(err, loginMessageChain, "Invalid username or password")
			m.apply(gen, nil)
			m.safeNotify(func(n Notifier) { n.Error(msg) })
			return &AuthError{Message: msg, Err: err}
		}
		m.apply(gen, user)
		m.safeNotify(func(n Notifier) { n.Success("Login successful!") })
		return nil

	default:
		f := outcome.(loginFailed)
		msg := failureMessage(f.err, loginMessageChain, "Invalid username or password")
		m.apply(gen, nil)
		m.safeNotify(func(n Notifier) { n.Error(msg) })
		return &AuthError{Message: msg, Err: f.err}
	}
}

// loginOutcome is the tagged result of the two-tier login attempt
type loginOutcome interface{ isLoginOutcome() }

type loginCombined struct{ resp *api.AuthResponse }
type loginSplit struct{ tokens *api.TokenResponse }
type loginFailed struct{ err error }

func (loginCombined) isLoginOutcome() {}
func (loginSplit) isLoginOutcome()    {}
func (loginFailed) isLoginOutcome()   {}

func (m *Manager) attemptLogin(ctx context.Context, username, password string) loginOutcome {
	resp, err := m.api.Login(ctx, username, password)
	if err == nil {
		return loginCombined{resp: resp}
	}
	m.logger.Debug().Err(err).Msg("Combined login failed, trying token endpoint")

	tokens, tokenErr := m.api.Token(ctx, username, password)
	if tokenErr == nil {
		return loginSplit{tokens: tokens}
	}
	return loginFailed{err: tokenErr}
}

// Register creates an account and signs the new user in
func (m *Manager) Register(ctx context.Context, username, email, password, password2 string) error {
	gen := m.begin(true)

	resp, err := m.api.Register(ctx, api.RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  password,
		Password2: password2,
	})
	if err != nil {
		msg := failureMessage(err, registerMessageChain, "Registration failed")
		m.apply(gen, nil)
		m.safeNotify(func(n Notifier) { n.Error(msg) })
		return &AuthError{Message: msg, Err: err}
	}

	m.saveTokens(resp.Access, resp.Refresh)
	m.apply(gen, resp.User)
	m.safeNotify(func(n Notifier) { n.Success("Registration successful!") })
	return nil
}

// Refresh exchanges the stored refresh token for a fresh access token. The
// stored refresh token survives, so the exchange can be repeated until the
// refresh token itself expires. Session state is untouched: a refresh renews
// credentials, not the profile.
func (m *Manager) Refresh(ctx context.Context) error {
	refresh, err := m.store.LoadRefresh()
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to read credential store")
	}
	if refresh == "" {
		msg := "No refresh token stored"
		m.safeNotify(func(n Notifier) { n.Error(msg) })
		return &AuthError{Message: msg}
	}

	access, err := m.api.RefreshToken(ctx, refresh)
	if err != nil {
		msg := failureMessage(err, loginMessageChain, "Session expired, please log in again")
		m.safeNotify(func(n Notifier) { n.Error(msg) })
		return &AuthError{Message: msg, Err: err}
	}

	m.saveTokens(access, "")
	m.safeNotify(func(n Notifier) { n.Success("Session refreshed") })
	return nil
}

// Logout clears the stored credentials and resets to guest. It is a pure
// reset: callable from any state, always terminating in guest, never failing.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear credential store")
	}

	m.mu.Lock()
	m.gen++
	m.user = nil
	m.loading = false
	m.mu.Unlock()

	m.safeNotify(func(n Notifier) { n.Info("Logged out successfully") })
}

// IsAdmin derives the admin predicate from the current state on every call
func (m *Manager) IsAdmin() bool {
	return m.Snapshot().IsAdmin()
}

// Snapshot returns the current session state for access decisions
func (m *Manager) Snapshot() access.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return access.Session{User: m.user, Loading: m.loading}
}

// begin stamps a new generation for a mutating operation. Stale completions
// (an older generation finishing after a newer one started) are discarded by
// apply, so overlapping operations cannot clobber a more recent transition.
func (m *Manager) begin(loading bool) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.loading = loading
	return m.gen
}

// apply commits a result if the generation is still current
func (m *Manager) apply(gen uint64, user *api.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		m.logger.Debug().Uint64("gen", gen).Uint64("current", m.gen).Msg("Discarding stale session update")
		return
	}
	m.user = user
	m.loading = false
}

func (m *Manager) saveTokens(access, refresh string) {
	if err := m.store.Save(access, refresh); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to persist tokens")
	}
}

// safeNotify delivers a notification without letting a panicking notifier
// disturb the already-applied state transition
func (m *Manager) safeNotify(fn func(Notifier)) {
	if m.notify == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn().Interface("panic", r).Msg("Notifier panicked")
		}
	}()
	fn(m.notify)
}
