package session

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixido-dev/pixido/internal/cli/api"
)

// fakeAPI scripts responses per endpoint and records call counts
type fakeAPI struct {
	loginResp *api.AuthResponse
	loginErr  error

	tokenResp *api.TokenResponse
	tokenErr  error

	registerResp *api.AuthResponse
	registerErr  error

	refreshResp string
	refreshErr  error

	userResp *api.User
	userErr  error

	loginCalls    int
	tokenCalls    int
	registerCalls int
	refreshCalls  int
	userCalls     int
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*api.AuthResponse, error) {
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Token(ctx context.Context, username, password string) (*api.TokenResponse, error) {
	f.tokenCalls++
	return f.tokenResp, f.tokenErr
}

func (f *fakeAPI) Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error) {
	f.registerCalls++
	return f.registerResp, f.registerErr
}

func (f *fakeAPI) RefreshToken(ctx context.Context, refresh string) (string, error) {
	f.refreshCalls++
	return f.refreshResp, f.refreshErr
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*api.User, error) {
	f.userCalls++
	return f.userResp, f.userErr
}

// memoryStore is an in-memory credential store
type memoryStore struct {
	access  string
	refresh string
}

func (m *memoryStore) Save(accessToken, refreshToken string) error {
	m.access = accessToken
	if refreshToken != "" {
		m.refresh = refreshToken
	}
	return nil
}

func (m *memoryStore) Load() (string, error)        { return m.access, nil }
func (m *memoryStore) LoadRefresh() (string, error) { return m.refresh, nil }

func (m *memoryStore) Clear() error {
	m.access = ""
	m.refresh = ""
	return nil
}

// recordingNotifier captures notifications in order
type recordingNotifier struct {
	successes []string
	errors    []string
	infos     []string
}

func (r *recordingNotifier) Success(msg string) { r.successes = append(r.successes, msg) }
func (r *recordingNotifier) Error(msg string)   { r.errors = append(r.errors, msg) }
func (r *recordingNotifier) Info(msg string)    { r.infos = append(r.infos, msg) }

// panickingNotifier panics on every notification
type panickingNotifier struct{}

func (panickingNotifier) Success(msg string) { panic("notifier down") }
func (panickingNotifier) Error(msg string)   { panic("notifier down") }
func (panickingNotifier) Info(msg string)    { panic("notifier down") }

func newTestManager(f *fakeAPI, store *memoryStore, n Notifier) *Manager {
	return New(f, store, n, zerolog.Nop())
}

func TestManagerStartsLoading(t *testing.T) {
	m := newTestManager(&fakeAPI{}, &memoryStore{}, nil)

	snap := m.Snapshot()
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.User)
}

func TestStartWithoutTokenSettlesToGuestWithoutNetworkCall(t *testing.T) {
	f := &fakeAPI{}
	m := newTestManager(f, &memoryStore{}, nil)

	m.Start(context.Background())

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.User)
	assert.Zero(t, f.userCalls)
}

func TestStartWithTokenFetchesUser(t *testing.T) {
	f := &fakeAPI{userResp: &api.User{Username: "alice", Role: "user"}}
	m := newTestManager(f, &memoryStore{access: "stored-token"}, nil)

	m.Start(context.Background())

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice", snap.User.Username)
	assert.Equal(t, 1, f.userCalls)
}

func TestFetchUserFailureClearsStoreAndSettlesToGuest(t *testing.T) {
	f := &fakeAPI{userErr: &api.Error{StatusCode: 401, Detail: "Token is invalid"}}
	store := &memoryStore{access: "expired-token", refresh: "expired-refresh"}
	m := newTestManager(f, store, nil)

	m.Start(context.Background())

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.User)
	assert.Empty(t, store.access)
	assert.Empty(t, store.refresh)
}

func TestLoginCombinedEndpointSuccess(t *testing.T) {
	f := &fakeAPI{
		loginResp: &api.AuthResponse{
			Access:  "new-access",
			Refresh: "new-refresh",
			User:    &api.User{Username: "alice", Role: "user"},
		},
	}
	store := &memoryStore{}
	notifier := &recordingNotifier{}
	m := newTestManager(f, store, notifier)

	err := m.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	snap := m.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice", snap.User.Username)
	assert.Equal(t, "new-access", store.access)
	assert.Equal(t, "new-refresh", store.refresh)
	assert.Equal(t, []string{"Login successful!"}, notifier.successes)

	// A combined success never touches the token-only endpoint
	assert.Equal(t, 1, f.loginCalls)
	assert.Zero(t, f.tokenCalls)
	assert.Zero(t, f.userCalls)
}

func TestLoginFallsBackToTokenEndpoint(t *testing.T) {
	f := &fakeAPI{
		loginErr:  &api.Error{StatusCode: 404, Raw: "not found"},
		tokenResp: &api.TokenResponse{Access: "split-access", Refresh: "split-refresh"},
		userResp:  &api.User{Username: "alice", Role: "user"},
	}
	store := &memoryStore{}
	notifier := &recordingNotifier{}
	m := newTestManager(f, store, notifier)

	err := m.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	snap := m.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "alice", snap.User.Username)
	assert.Equal(t, "split-access", store.access)
	assert.Equal(t, 1, f.loginCalls)
	assert.Equal(t, 1, f.tokenCalls)
	assert.Equal(t, 1, f.userCalls)
	assert.Equal(t, []string{"Login successful!"}, notifier.successes)
}

func TestLoginBothEndpointsFail(t *testing.T) {
	f := &fakeAPI{
		loginErr: &api.Error{StatusCode: 401, Detail: "Invalid credentials."},
		tokenErr: &api.Error{StatusCode: 401, Detail: "Invalid credentials."},
	}
	notifier := &recordingNotifier{}
	m := newTestManager(f, &memoryStore{}, notifier)

	err := m.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials.", authErr.Message)
	assert.Equal(t, []string{"Invalid credentials."}, notifier.errors)

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.User)
}

func TestLoginSplitProfileFetchFailureSettlesToGuest(t *testing.T) {
	f := &fakeAPI{
		loginErr:  &api.Error{StatusCode: 404, Raw: "not found"},
		tokenResp: &api.TokenResponse{Access: "split-access"},
		userErr:   errors.New("connection reset"),
	}
	notifier := &recordingNotifier{}
	m := newTestManager(f, &memoryStore{}, notifier)

	err := m.Login(context.Background(), "alice", "secret")
	require.Error(t, err)

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.User)
	assert.Equal(t, []string{"Invalid username or password"}, notifier.errors)
}

func TestLoginNetworkErrorUsesGenericMessage(t *testing.T) {
	f := &fakeAPI{
		loginErr: errors.New("dial tcp: connection refused"),
		tokenErr: errors.New("dial tcp: connection refused"),
	}
	notifier := &recordingNotifier{}
	m := newTestManager(f, &memoryStore{}, notifier)

	err := m.Login(context.Background(), "alice", "secret")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid username or password", authErr.Message)
}

func TestRegisterSuccess(t *testing.T) {
	f := &fakeAPI{
		registerResp: &api.AuthResponse{
			Access:  "reg-access",
			Refresh: "reg-refresh",
			User:    &api.User{Username: "bob", Role: "user"},
		},
	}
	store := &memoryStore{}
	notifier := &recordingNotifier{}
	m := newTestManager(f, store, notifier)

	err := m.Register(context.Background(), "bob", "bob@example.com", "secret123", "secret123")
	require.NoError(t, err)

	snap := m.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "bob", snap.User.Username)
	assert.Equal(t, "reg-access", store.access)
	assert.Equal(t, []string{"Registration successful!"}, notifier.successes)
}

func TestRegisterPasswordFieldErrorTakesPrecedence(t *testing.T) {
	f := &fakeAPI{
		registerErr: &api.Error{
			StatusCode: 400,
			Detail:     "Bad request.",
			Fields:     map[string][]string{"password": {"Password fields didn't match."}},
		},
	}
	notifier := &recordingNotifier{}
	m := newTestManager(f, &memoryStore{}, notifier)

	err := m.Register(context.Background(), "bob", "bob@example.com", "one", "two")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Password fields didn't match.", authErr.Message)
	assert.Equal(t, []string{"Password fields didn't match."}, notifier.errors)
}

func TestRegisterRawBodyFallback(t *testing.T) {
	f := &fakeAPI{
		registerErr: &api.Error{StatusCode: 500, Raw: "internal server error"},
	}
	m := newTestManager(f, &memoryStore{}, nil)

	err := m.Register(context.Background(), "bob", "bob@example.com", "secret123", "secret123")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "internal server error", authErr.Message)
}

func TestRefreshRenewsAccessToken(t *testing.T) {
	f := &fakeAPI{refreshResp: "fresh-access"}
	store := &memoryStore{access: "stale-access", refresh: "valid-refresh"}
	notifier := &recordingNotifier{}
	m := newTestManager(f, store, notifier)

	require.NoError(t, m.Refresh(context.Background()))

	assert.Equal(t, "fresh-access", store.access)
	// The refresh token survives so the exchange can be repeated
	assert.Equal(t, "valid-refresh", store.refresh)
	assert.Equal(t, 1, f.refreshCalls)
	assert.Equal(t, []string{"Session refreshed"}, notifier.successes)
}

func TestRefreshWithoutStoredTokenMakesNoNetworkCall(t *testing.T) {
	f := &fakeAPI{}
	m := newTestManager(f, &memoryStore{access: "stale-access"}, nil)

	err := m.Refresh(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "No refresh token stored", authErr.Message)
	assert.Zero(t, f.refreshCalls)
}

func TestRefreshFailureKeepsStoredCredentials(t *testing.T) {
	f := &fakeAPI{refreshErr: &api.Error{StatusCode: 401, Detail: "Token is invalid or expired"}}
	store := &memoryStore{access: "stale-access", refresh: "expired-refresh"}
	notifier := &recordingNotifier{}
	m := newTestManager(f, store, notifier)

	err := m.Refresh(context.Background())
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Token is invalid or expired", authErr.Message)
	assert.Equal(t, []string{"Token is invalid or expired"}, notifier.errors)

	// A failed exchange is not a logout; the user decides what happens next
	assert.Equal(t, "stale-access", store.access)
	assert.Equal(t, "expired-refresh", store.refresh)
}

func TestLogoutResetsToGuestFromAnyState(t *testing.T) {
	f := &fakeAPI{
		loginResp: &api.AuthResponse{
			Access: "access",
			User:   &api.User{Username: "alice", Role: "admin"},
		},
	}
	store := &memoryStore{}
	notifier := &recordingNotifier{}
	m := newTestManager(f, store, notifier)

	require.NoError(t, m.Login(context.Background(), "alice", "secret"))
	require.NotNil(t, m.Snapshot().User)

	m.Logout()

	snap := m.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.User)
	assert.Empty(t, store.access)
	assert.Equal(t, []string{"Logged out successfully"}, notifier.infos)

	// Logout from guest is a no-op reset, never an error
	m.Logout()
	assert.Nil(t, m.Snapshot().User)
}

func TestIsAdminDerivedFromCurrentState(t *testing.T) {
	f := &fakeAPI{
		loginResp: &api.AuthResponse{
			Access: "access",
			User:   &api.User{Username: "root", Role: "admin"},
		},
	}
	m := newTestManager(f, &memoryStore{}, nil)

	assert.False(t, m.IsAdmin())

	require.NoError(t, m.Login(context.Background(), "root", "secret"))
	assert.True(t, m.IsAdmin())

	m.Logout()
	assert.False(t, m.IsAdmin())
}

func TestPanickingNotifierDoesNotBlockTransition(t *testing.T) {
	f := &fakeAPI{
		loginResp: &api.AuthResponse{
			Access: "access",
			User:   &api.User{Username: "alice", Role: "user"},
		},
	}
	m := newTestManager(f, &memoryStore{}, panickingNotifier{})

	require.NotPanics(t, func() {
		require.NoError(t, m.Login(context.Background(), "alice", "secret"))
	})
	require.NotNil(t, m.Snapshot().User)

	require.NotPanics(t, func() { m.Logout() })
	assert.Nil(t, m.Snapshot().User)
}

func TestStaleUpdateIsDiscarded(t *testing.T) {
	m := newTestManager(&fakeAPI{}, &memoryStore{}, nil)

	// An operation begun before a newer one must not clobber its result
	staleGen := m.begin(true)
	m.begin(true)
	m.apply(m.gen, &api.User{Username: "current"})

	m.apply(staleGen, &api.User{Username: "stale"})

	snap := m.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, "current", snap.User.Username)
}

func TestFailureMessagePrecedence(t *testing.T) {
	detailAndMessage := &api.Error{Detail: "detail wins", Message: "error field"}
	assert.Equal(t, "detail wins", failureMessage(detailAndMessage, loginMessageChain, "fallback"))

	messageOnly := &api.Error{Message: "error field"}
	assert.Equal(t, "error field", failureMessage(messageOnly, loginMessageChain, "fallback"))

	empty := &api.Error{}
	assert.Equal(t, "fallback", failureMessage(empty, loginMessageChain, "fallback"))

	assert.Equal(t, "fallback", failureMessage(errors.New("plain"), loginMessageChain, "fallback"))
}
