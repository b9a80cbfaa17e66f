package credstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestSaveAndLoad(t *testing.T) {
	keyring.MockInit()
	store := &keyringStore{}

	require.NoError(t, store.Save("access-token", "refresh-token"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access-token", token)

	refresh, err := store.LoadRefresh()
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", refresh)
}

func TestSaveEmptyRefreshKeepsExisting(t *testing.T) {
	keyring.MockInit()
	store := &keyringStore{}

	require.NoError(t, store.Save("first-access", "first-refresh"))
	require.NoError(t, store.Save("second-access", ""))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second-access", token)

	refresh, err := store.LoadRefresh()
	require.NoError(t, err)
	assert.Equal(t, "first-refresh", refresh)
}

func TestLoadEmptyStore(t *testing.T) {
	keyring.MockInit()
	store := &keyringStore{}

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	refresh, err := store.LoadRefresh()
	require.NoError(t, err)
	assert.Empty(t, refresh)
}

func TestLoadLegacyKeyFallback(t *testing.T) {
	keyring.MockInit()
	store := &keyringStore{}

	// Simulate an older release that stored the token under the legacy key
	require.NoError(t, keyring.Set(service, keyLegacy, "legacy-token"))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", token)

	// The legacy key is honored on reads but never rewritten to the
	// primary key by a load
	_, err = keyring.Get(service, keyAccess)
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestPrimaryKeyWinsOverLegacy(t *testing.T) {
	keyring.MockInit()
	store := &keyringStore{}

	require.NoError(t, keyring.Set(service, keyLegacy, "legacy-token"))
	require.NoError(t, store.Save("current-token", ""))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "current-token", token)
}

func TestClearRemovesAllKeys(t *testing.T) {
	keyring.MockInit()
	store := &keyringStore{}

	require.NoError(t, store.Save("access-token", "refresh-token"))
	require.NoError(t, keyring.Set(service, keyLegacy, "legacy-token"))

	require.NoError(t, store.Clear())

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	refresh, err := store.LoadRefresh()
	require.NoError(t, err)
	assert.Empty(t, refresh)
}

func TestClearIsIdempotent(t *testing.T) {
	keyring.MockInit()
	store := &keyringStore{}

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}
