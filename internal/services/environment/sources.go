package environment

import (
	"context"
	"strings"

	"tokenkeeper/internal/domain"
)

// Credential source names, in resolution order.
const (
	SourceFlag    = "flag"
	SourceEnv     = "env:GITLAB_TOKEN"
	SourceKeyring = "keyring"
)

// FlagSource offers a token given explicitly (flag, config or TOKENKEEPER_TOKEN).
type FlagSource struct {
	value string
}

// NewFlagSource creates a source for an explicit token.
func NewFlagSource(value string) *FlagSource {
	return &FlagSource{value: value}
}

func (s *FlagSource) Name() string { return SourceFlag }

func (s *FlagSource) Lookup(context.Context, string) (string, error) {
	return strings.TrimSpace(s.value), nil
}

// EnvSource offers the value of one environment variable.
type EnvSource struct {
	key    string
	getenv func(string) string
}

// NewEnvSource creates a source reading key through getenv.
func NewEnvSource(key string, getenv func(string) string) *EnvSource {
	return &EnvSource{key: key, getenv: getenv}
}

func (s *EnvSource) Name() string { return "env:" + s.key }

func (s *EnvSource) Lookup(context.Context, string) (string, error) {
	return strings.TrimSpace(s.getenv(s.key)), nil
}

// KeyringSource offers the token stored for the host by `auth login`.
type KeyringSource struct {
	store domain.CredentialStore
}

// NewKeyringSource creates a source backed by store.
func NewKeyringSource(store domain.CredentialStore) *KeyringSource {
	return &KeyringSource{store: store}
}

func (s *KeyringSource) Name() string { return SourceKeyring }

func (s *KeyringSource) Lookup(_ context.Context, host string) (string, error) {
	if host == "" {
		return "", nil
	}
	return s.store.Get(host)
}

// DefaultSources returns the standard credential chain.
func DefaultSources(explicit string, getenv func(string) string, store domain.CredentialStore) []domain.CredentialSource {
	return []domain.CredentialSource{
		NewFlagSource(explicit),
		NewEnvSource("GITLAB_TOKEN", getenv),
		NewKeyringSource(store),
	}
}
