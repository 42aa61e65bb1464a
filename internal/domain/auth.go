package domain

import "context"

// PasswordReader handles secure secret input from users.
type PasswordReader interface {
	ReadPassword(ctx context.Context, prompt string) (string, error)
	IsInteractive() bool
}

// CredentialStore persists access tokens per GitLab host outside the config file.
type CredentialStore interface {
	Get(host string) (string, error)
	Set(host, token string) error
	Delete(host string) error
}

// CredentialSource is one named place an access token can come from.
// Lookup returns an empty string when the source has nothing to offer.
type CredentialSource interface {
	Name() string
	Lookup(ctx context.Context, host string) (string, error)
}
