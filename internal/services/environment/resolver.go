// Package environment resolves the GitLab host, project, acting user and
// credential for a run.
package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"tokenkeeper/internal/domain"
	apperrors "tokenkeeper/internal/errors"
)

const (
	defaultRemote = "origin"
	defaultScheme = "https"

	locationSourceConfig   = "config"
	locationSourcePipeline = "pipeline"
)

// Resolver builds the domain.Environment of a run.
type Resolver struct {
	remote  domain.RemoteInspector
	sources []domain.CredentialSource
	getenv  func(string) string
	logger  *slog.Logger
}

// NewResolver creates a resolver. Credential sources are tried in order.
func NewResolver(
	remote domain.RemoteInspector,
	sources []domain.CredentialSource,
	getenv func(string) string,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		remote:  remote,
		sources: sources,
		getenv:  getenv,
		logger:  logger,
	}
}

// Resolve assembles the environment from settings, the git remote and
// pipeline variables, then picks the first credential source with a value.
func (r *Resolver) Resolve(ctx context.Context, settings domain.Settings) (domain.Environment, error) {
	loc, source, err := r.resolveLocation(ctx, settings)
	if err != nil {
		return domain.Environment{}, err
	}

	credential, credentialSource, err := r.ResolveCredential(ctx, loc.Host)
	if err != nil {
		return domain.Environment{}, err
	}

	env := domain.Environment{
		Host:               loc.Host,
		Scheme:             loc.Scheme,
		ProjectPath:        loc.Project,
		EncodedProjectPath: EncodeProjectPath(loc.Project),
		UserID:             r.resolveUserID(settings),
		Credential:         credential,
		CredentialSource:   credentialSource,
		ProjectSource:      source,
	}

	r.logger.DebugContext(ctx, "Resolved environment",
		"host", env.Host,
		"project", env.ProjectPath,
		"project_source", env.ProjectSource,
		"credential_source", env.CredentialSource,
		"user_id", env.UserID)
	return env, nil
}

// ResolveCredential returns the first non-empty credential for host and the
// name of the source that supplied it.
func (r *Resolver) ResolveCredential(ctx context.Context, host string) (string, string, error) {
	names := make([]string, 0, len(r.sources))
	for _, source := range r.sources {
		names = append(names, source.Name())

		value, err := source.Lookup(ctx, host)
		if err != nil {
			// An unavailable keyring (headless CI) must not hide later sources.
			r.logger.DebugContext(ctx, "Credential source unavailable",
				"source", source.Name(), "error", err)
			continue
		}
		if value != "" {
			return value, source.Name(), nil
		}
	}
	return "", "", apperrors.NewMissingCredentialError(names)
}

// ResolveHost returns only the host and scheme, for commands that need no
// project.
func (r *Resolver) ResolveHost(ctx context.Context, settings domain.Settings) (string, string, error) {
	if host := strings.TrimSpace(settings.Host); host != "" {
		scheme := strings.TrimSpace(settings.Scheme)
		if scheme == "" {
			scheme = defaultScheme
		}
		return host, scheme, nil
	}
	loc, _, err := r.resolveLocation(ctx, settings)
	if err != nil {
		return "", "", err
	}
	return loc.Host, loc.Scheme, nil
}

func (r *Resolver) resolveLocation(ctx context.Context, settings domain.Settings) (Location, string, error) {
	loc := Location{
		Host:    strings.TrimSpace(settings.Host),
		Scheme:  strings.TrimSpace(settings.Scheme),
		Project: strings.Trim(strings.TrimSpace(settings.Project), "/"),
	}
	source := locationSourceConfig

	var remoteErr error
	if !loc.complete() {
		remoteName := settings.Remote
		if remoteName == "" {
			remoteName = defaultRemote
		}

		remoteLoc, err := r.locationFromRemote(ctx, remoteName)
		if err != nil {
			remoteErr = err
			r.logger.DebugContext(ctx, "Git remote unavailable", "remote", remoteName, "error", err)
		} else {
			source = "git:" + remoteName
			loc = loc.fill(remoteLoc)
		}
	}

	if !loc.complete() && r.inPipeline() {
		pipelineLoc := Location{
			Host:    r.getenv("CI_SERVER_HOST"),
			Scheme:  r.getenv("CI_SERVER_PROTOCOL"),
			Project: r.getenv("CI_PROJECT_PATH"),
		}
		if pipelineLoc.Host != "" || pipelineLoc.Project != "" {
			source = locationSourcePipeline
			loc = loc.fill(pipelineLoc)
		}
	}

	if !loc.complete() {
		if remoteErr != nil && errors.Is(remoteErr, apperrors.ErrMissingTool) {
			return Location{}, "", remoteErr
		}
		return Location{}, "", apperrors.NewConfigurationError("gitlab.project", "",
			"could not determine GitLab host and project (set gitlab.host and gitlab.project, or run inside a git checkout)",
			remoteErr)
	}

	if loc.Scheme == "" {
		loc.Scheme = defaultScheme
	}
	if loc.Scheme != "http" && loc.Scheme != "https" {
		return Location{}, "", apperrors.NewConfigurationError("gitlab.scheme", loc.Scheme,
			"scheme must be http or https", nil)
	}
	return loc, source, nil
}

func (r *Resolver) locationFromRemote(ctx context.Context, remote string) (Location, error) {
	if r.remote == nil {
		return Location{}, errors.New("no remote inspector configured")
	}
	raw, err := r.remote.RemoteURL(ctx, remote)
	if err != nil {
		return Location{}, err
	}
	loc, err := ParseRemoteURL(raw)
	if err != nil {
		return Location{}, fmt.Errorf("failed to parse remote %s: %w", remote, err)
	}
	return loc, nil
}

func (r *Resolver) resolveUserID(settings domain.Settings) int {
	if settings.UserID > 0 {
		return settings.UserID
	}
	if !r.inPipeline() {
		return 0
	}
	id, err := strconv.Atoi(strings.TrimSpace(r.getenv("GITLAB_USER_ID")))
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func (r *Resolver) inPipeline() bool {
	return r.getenv("GITLAB_CI") == "true" || r.getenv("CI") == "true"
}

func (l Location) complete() bool {
	return l.Host != "" && l.Project != ""
}

// fill copies fields of other into the empty fields of l.
func (l Location) fill(other Location) Location {
	if l.Host == "" {
		l.Host = other.Host
		if l.Scheme == "" {
			l.Scheme = other.Scheme
		}
	}
	if l.Project == "" {
		l.Project = other.Project
	}
	return l
}
