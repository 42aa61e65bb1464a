// Package keyring stores GitLab access tokens in the OS credential store.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "tokenkeeper"

// Store implements domain.CredentialStore on top of the system keyring
// (Keychain, Secret Service, Windows Credential Manager). Entries are keyed
// by GitLab host.
type Store struct {
	service string
}

// New creates a keyring-backed credential store.
func New() *Store {
	return &Store{service: serviceName}
}

// Get returns the token stored for host, or "" when none is stored.
func (s *Store) Get(host string) (string, error) {
	secret, err := keyring.Get(s.service, host)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read keyring entry for %s: %w", host, err)
	}
	return secret, nil
}

// Set stores token for host, replacing any previous entry.
func (s *Store) Set(host, token string) error {
	if err := keyring.Set(s.service, host, token); err != nil {
		return fmt.Errorf("failed to write keyring entry for %s: %w", host, err)
	}
	return nil
}

// Delete removes the entry for host. A missing entry is not an error.
func (s *Store) Delete(host string) error {
	if err := keyring.Delete(s.service, host); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring entry for %s: %w", host, err)
	}
	return nil
}
