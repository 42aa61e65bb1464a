package app

import (
	"log/slog"
	"time"

	"tokenkeeper/internal/adapters/http"
	"tokenkeeper/internal/domain"
	"tokenkeeper/internal/services/gitlab"
)

const (
	// defaultHTTPTimeout is the default timeout for a single GitLab API request.
	defaultHTTPTimeout = 30 * time.Second
)

// GitLabServiceFactory implements the domain.GitLabServiceFactory interface.
type GitLabServiceFactory struct {
	logger    *slog.Logger
	timeout   time.Duration
	rateLimit float64
	rateBurst int
}

// NewGitLabServiceFactory creates a new GitLab service factory. A
// non-positive rateLimit keeps the adapter's default rate.
func NewGitLabServiceFactory(logger *slog.Logger, rateLimit float64, rateBurst int) *GitLabServiceFactory {
	return &GitLabServiceFactory{
		logger:    logger,
		timeout:   defaultHTTPTimeout,
		rateLimit: rateLimit,
		rateBurst: max(rateBurst, 1),
	}
}

// CreateServices creates all GitLab collaborators bound to env's host and
// credential. One client serves every role.
func (f *GitLabServiceFactory) CreateServices(env domain.Environment, insecureSkipTLS bool) domain.GitLabServices {
	if insecureSkipTLS {
		f.logger.Warn("TLS certificate verification is disabled", "host", env.Host)
	}

	httpAdapter := http.NewAdapter(f.timeout, insecureSkipTLS, f.logger)
	if f.rateLimit > 0 {
		httpAdapter.SetRateLimit(f.rateLimit, f.rateBurst)
	}
	client := gitlab.NewClient(httpAdapter, env, f.logger)

	return domain.GitLabServices{
		Tokens:      client,
		Variables:   client,
		Permissions: client,
		Leases:      client,
	}
}
