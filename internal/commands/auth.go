package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"tokenkeeper/internal/domain"
	apperrors "tokenkeeper/internal/errors"
	"tokenkeeper/internal/services/environment"
)

// AuthLoginCommand stores an access token for a GitLab host in the keyring.
type AuthLoginCommand struct {
	resolver *environment.Resolver
	factory  domain.GitLabServiceFactory
	store    domain.CredentialStore
	reader   domain.PasswordReader
	logger   *slog.Logger
}

// NewAuthLoginCommand creates a new auth login command.
func NewAuthLoginCommand(
	resolver *environment.Resolver,
	factory domain.GitLabServiceFactory,
	store domain.CredentialStore,
	reader domain.PasswordReader,
	logger *slog.Logger,
) *AuthLoginCommand {
	return &AuthLoginCommand{
		resolver: resolver,
		factory:  factory,
		store:    store,
		reader:   reader,
		logger:   logger,
	}
}

// AuthLoginRequest contains the parameters for the auth login command.
type AuthLoginRequest struct {
	Settings domain.Settings
	Verify   bool
}

// AuthResult describes the credential for a host.
type AuthResult struct {
	Host   string
	Source string
	Scopes []string
}

// Execute prompts for a token, optionally verifies its scopes and stores it.
func (c *AuthLoginCommand) Execute(ctx context.Context, req AuthLoginRequest) (*AuthResult, error) {
	host, scheme, err := c.resolver.ResolveHost(ctx, req.Settings)
	if err != nil {
		return nil, err
	}

	token, err := c.reader.ReadPassword(ctx, fmt.Sprintf("GitLab access token for %s: ", host))
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewConfigurationError("token", "", "empty access token", nil)
	}

	result := &AuthResult{Host: host, Source: environment.SourceKeyring}
	if req.Verify {
		scopes, verifyErr := verifyScopes(ctx, c.factory, host, scheme, token, req.Settings.InsecureSkipTLS)
		if verifyErr != nil {
			return nil, verifyErr
		}
		result.Scopes = scopes
	}

	if err := c.store.Set(host, token); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Stored access token in keyring", "host", host, "verified", req.Verify)
	return result, nil
}

// AuthLogoutCommand removes the stored token for a GitLab host.
type AuthLogoutCommand struct {
	resolver *environment.Resolver
	store    domain.CredentialStore
	logger   *slog.Logger
}

// NewAuthLogoutCommand creates a new auth logout command.
func NewAuthLogoutCommand(
	resolver *environment.Resolver,
	store domain.CredentialStore,
	logger *slog.Logger,
) *AuthLogoutCommand {
	return &AuthLogoutCommand{
		resolver: resolver,
		store:    store,
		logger:   logger,
	}
}

// AuthLogoutRequest contains the parameters for the auth logout command.
type AuthLogoutRequest struct {
	Settings domain.Settings
}

// Execute deletes the keyring entry. A missing entry is not an error.
func (c *AuthLogoutCommand) Execute(ctx context.Context, req AuthLogoutRequest) (string, error) {
	host, _, err := c.resolver.ResolveHost(ctx, req.Settings)
	if err != nil {
		return "", err
	}

	if err := c.store.Delete(host); err != nil {
		return "", err
	}

	c.logger.InfoContext(ctx, "Removed access token from keyring", "host", host)
	return host, nil
}

// AuthStatusCommand reports which credential source resolves for a host.
type AuthStatusCommand struct {
	resolver *environment.Resolver
	factory  domain.GitLabServiceFactory
	logger   *slog.Logger
}

// NewAuthStatusCommand creates a new auth status command.
func NewAuthStatusCommand(
	resolver *environment.Resolver,
	factory domain.GitLabServiceFactory,
	logger *slog.Logger,
) *AuthStatusCommand {
	return &AuthStatusCommand{
		resolver: resolver,
		factory:  factory,
		logger:   logger,
	}
}

// AuthStatusRequest contains the parameters for the auth status command.
type AuthStatusRequest struct {
	Settings domain.Settings
	Verify   bool
}

// Execute resolves the credential and, when asked, reads its scopes.
func (c *AuthStatusCommand) Execute(ctx context.Context, req AuthStatusRequest) (*AuthResult, error) {
	host, scheme, err := c.resolver.ResolveHost(ctx, req.Settings)
	if err != nil {
		return nil, err
	}

	token, source, err := c.resolver.ResolveCredential(ctx, host)
	if err != nil {
		return nil, err
	}

	result := &AuthResult{Host: host, Source: source}
	if req.Verify {
		scopes, verifyErr := verifyScopes(ctx, c.factory, host, scheme, token, req.Settings.InsecureSkipTLS)
		if verifyErr != nil {
			return result, verifyErr
		}
		result.Scopes = scopes
	}
	return result, nil
}

func verifyScopes(
	ctx context.Context,
	factory domain.GitLabServiceFactory,
	host, scheme, token string,
	insecureSkipTLS bool,
) ([]string, error) {
	env := domain.Environment{Host: host, Scheme: scheme, Credential: token}
	scopes, err := factory.CreateServices(env, insecureSkipTLS).Permissions.SelfScopes(ctx)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return nil, errors.Join(errors.New("token was rejected by GitLab"), err)
		}
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if !slices.Contains(scopes, domain.RequiredScope) {
		return scopes, apperrors.NewInsufficientScopeError(domain.RequiredScope, scopes)
	}
	return scopes, nil
}
