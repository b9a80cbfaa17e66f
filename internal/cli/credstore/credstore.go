// Package credstore persists the CLI's token pair in the OS
// keychain/credential manager, surviving between invocations.
package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "pixido-cli"

	keyAccess  = "access"
	keyRefresh = "refresh"
	// Older releases stored the access token under this key. It is honored
	// on reads for backward compatibility but never written.
	keyLegacy = "token"
)

// Store defines the interface for credential storage operations.
// This allows us to mock the keyring in tests.
type Store interface {
	// Save persists the access token, and the refresh token when non-empty.
	// An empty refresh token never overwrites a stored one.
	Save(accessToken, refreshToken string) error
	// Load returns the stored access token, falling back to the legacy key.
	// Returns "" with no error when nothing is stored.
	Load() (string, error)
	// LoadRefresh returns the stored refresh token, or "" when absent.
	LoadRefresh() (string, error)
	// Clear removes all stored tokens. Idempotent.
	Clear() error
}

// keyringStore implements Store using the OS keyring
type keyringStore struct{}

var Default Store = &keyringStore{}

func (k *keyringStore) Save(accessToken, refreshToken string) error {
	if err := keyring.Set(service, keyAccess, accessToken); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	if refreshToken != "" {
		if err := keyring.Set(service, keyRefresh, refreshToken); err != nil {
			return fmt.Errorf("failed to save refresh token: %w", err)
		}
	}
	return nil
}

func (k *keyringStore) Load() (string, error) {
	token, err := keyring.Get(service, keyAccess)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("failed to load access token: %w", err)
	}

	// Legacy key fallback, read-only
	token, err = keyring.Get(service, keyLegacy)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("failed to load access token: %w", err)
	}
	return "", nil
}

func (k *keyringStore) LoadRefresh() (string, error) {
	token, err := keyring.Get(service, keyRefresh)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load refresh token: %w", err)
	}
	return token, nil
}

func (k *keyringStore) Clear() error {
	for _, key := range []string{keyAccess, keyRefresh, keyLegacy} {
		if err := keyring.Delete(service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to delete %s token: %w", key, err)
		}
	}
	return nil
}

// Save persists tokens using the default store
func Save(accessToken, refreshToken string) error {
	return Default.Save(accessToken, refreshToken)
}

// Load retrieves the access token using the default store
func Load() (string, error) {
	return Default.Load()
}

// Clear removes all tokens from the default store
func Clear() error {
	return Default.Clear()
}
